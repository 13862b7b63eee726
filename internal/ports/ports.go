package ports

import (
	"context"
	"time"

	"github.com/forPelevin/cleancut/internal/types"
)

type VideoTool interface {
	ExtractAudioMP3(ctx context.Context, in, outMP3 string) error
	CutConcat(ctx context.Context, in string, ranges []types.KeptRange, workDir, out string) error
	ProbeDuration(ctx context.Context, in string) (time.Duration, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (types.Transcript, error)
}

type ScriptEditor interface {
	SuggestCuts(ctx context.Context, tr types.Transcript) (types.EditScript, error)
}
