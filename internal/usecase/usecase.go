package usecase

import (
	"context"
	"path/filepath"
	"time"

	"github.com/forPelevin/cleancut/internal/domain/plan"
	"github.com/forPelevin/cleancut/internal/logger"
	"github.com/forPelevin/cleancut/internal/ports"
	"github.com/forPelevin/cleancut/internal/retry"
	"github.com/forPelevin/cleancut/internal/types"
)

type Deps struct {
	Video  ports.VideoTool
	ASR    ports.Transcriber
	Editor ports.ScriptEditor
	Log    logger.Logger

	RetryAttempts  int
	RetryBaseDelay time.Duration
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.RetryAttempts < 1 {
		d.RetryAttempts = 1
	}
	if d.RetryBaseDelay <= 0 {
		d.RetryBaseDelay = 500 * time.Millisecond
	}
	return Usecase{d: d}
}

type Input struct {
	InputPath  string
	WorkDir    string
	OutPath    string
	Categories []types.CutReason
}

type Result struct {
	Kept       []types.KeptRange
	Transcript string
	Script     string
	OutputPath string

	// Empty is the everything-was-cut condition: no output file exists and
	// the media tool was never invoked.
	Empty bool

	// Degraded reports that the editing response was unusable and the full
	// recording was kept unchanged.
	Degraded bool
}

// Run drives one request through transcribe → plan → assemble. Errors carry
// the stage they came from; an unusable editing response is not an error,
// the run degrades to keeping everything.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	d := u.d

	duration, err := d.Video.ProbeDuration(ctx, in.InputPath)
	if err != nil {
		return Result{}, types.NewStageError(types.StageInput, err)
	}

	d.Log.Info(ctx, "transcribing %s (%.1fs)", filepath.Base(in.InputPath), duration.Seconds())
	audioPath := filepath.Join(in.WorkDir, "audio.mp3")
	if err := d.Video.ExtractAudioMP3(ctx, in.InputPath, audioPath); err != nil {
		return Result{}, types.NewStageError(types.StageInput, err)
	}

	var tr types.Transcript
	err = retry.Do(ctx, d.RetryAttempts, d.RetryBaseDelay, func(ctx context.Context) error {
		var trErr error
		tr, trErr = d.ASR.Transcribe(ctx, audioPath)
		return trErr
	})
	if err != nil {
		return Result{}, types.NewStageError(types.StageTranscribe, err)
	}
	if tr.Duration <= 0 {
		tr.Duration = duration
	}

	d.Log.Info(ctx, "planning cuts over %d words", len(tr.Words))
	res := Result{Transcript: tr.Text}

	var script types.EditScript
	err = retry.Do(ctx, d.RetryAttempts, d.RetryBaseDelay, func(ctx context.Context) error {
		var sErr error
		script, sErr = d.Editor.SuggestCuts(ctx, tr)
		return sErr
	})
	if err != nil {
		// Planning failures degrade to "keep everything" instead of failing
		// the request: no edit is a safe result, a lost upload is not.
		d.Log.Error(ctx, "planning error, keeping full recording: %v", err)
		script = types.EditScript{Script: tr.Text}
		res.Degraded = true
	}
	res.Script = script.Script

	cuts := plan.FilterCategories(script.Cuts, in.Categories)
	kept, dropped := plan.Build(duration, cuts)
	for _, dr := range dropped {
		d.Log.Warn(ctx, "dropped cut decision %s [%s-%s]: %s",
			dr.Cut.Reason, dr.Cut.Start, dr.Cut.End, dr.Reason)
	}
	res.Kept = kept

	if len(kept) == 0 {
		d.Log.Warn(ctx, "plan kept no content, skipping assembly")
		res.Empty = true
		return res, nil
	}

	d.Log.Info(ctx, "assembling %d ranges (%.1fs of %.1fs)",
		len(kept), plan.Total(kept).Seconds(), duration.Seconds())
	if err := d.Video.CutConcat(ctx, in.InputPath, kept, in.WorkDir, in.OutPath); err != nil {
		return Result{}, types.NewStageError(types.StageAssemble, err)
	}
	res.OutputPath = in.OutPath

	d.Log.Info(ctx, "done: %s", in.OutPath)
	return res, nil
}
