package types

import "time"

// Word is a single transcribed token with its position in the source media.
// Words are ordered by start time; consecutive words never overlap.
type Word struct {
	Text       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
	Filler     bool
}

// Transcript is the full word-level transcription of one input file.
type Transcript struct {
	Words    []Word
	Duration time.Duration
	Text     string
}

// CutReason classifies why the editing service wants a span removed.
type CutReason string

const (
	CutFiller     CutReason = "filler"
	CutFalseStart CutReason = "false_start"
	CutRepetition CutReason = "repetition"
	CutSilence    CutReason = "silence"
)

// CutDecision is an advisory span-to-remove suggested by the editing
// service. It is untrusted input and must be validated against the
// transcript before use.
type CutDecision struct {
	Reason CutReason
	Start  time.Duration
	End    time.Duration
}

// KeptRange is a validated [Start, End] interval of the source media that
// survives editing. A plan is an ordered sequence of KeptRanges where
// plan[i].End <= plan[i+1].Start and every range lies in [0, duration].
type KeptRange struct {
	Start time.Duration
	End   time.Duration
}

func (r KeptRange) Dur() time.Duration { return r.End - r.Start }

// EditScript is the editing service's parsed response: the cuts it wants
// plus the transcript it expects to remain after them.
type EditScript struct {
	Cuts   []CutDecision
	Script string
}
