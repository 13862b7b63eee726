package types

import (
	"errors"
	"fmt"
)

// Stage names the pipeline phase an error belongs to. The caller always
// learns which stage failed, never receives a partial output.
type Stage string

const (
	StageInput      Stage = "input"
	StageTranscribe Stage = "transcribe"
	StagePlan       Stage = "plan"
	StageAssemble   Stage = "assemble"
)

var (
	// ErrUnusableEdit marks an editing-service response that could not be
	// parsed into any cut decision. Recoverable: the planner keeps everything.
	ErrUnusableEdit = errors.New("editing response unusable")

	// ErrEmptyPlan means every span was cut and there is nothing to assemble.
	ErrEmptyPlan = errors.New("plan kept no content")
)

// StageError tags an error with the pipeline stage it came from.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// StageOf reports the stage an error is tagged with, or "" if untagged.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
