package plan

import (
	"fmt"
	"sort"
	"time"

	"github.com/forPelevin/cleancut/internal/types"
)

// Dropped records a cut decision the planner refused, with the reason it
// was refused. Callers log every entry; nothing is discarded silently.
type Dropped struct {
	Cut    types.CutDecision
	Reason string
}

// Build turns the editing service's cut decisions into the ordered list of
// media ranges to keep. The planner starts from the full [0, duration]
// range and subtracts each valid cut. Invalid decisions are dropped and
// reported, never fatal: a refused cut only means more content survives.
//
// The result is guaranteed chronological and non-overlapping, with every
// range inside [0, duration] and no zero-length ranges. An empty result
// means everything was cut.
func Build(duration time.Duration, cuts []types.CutDecision) ([]types.KeptRange, []Dropped) {
	if duration <= 0 {
		return nil, nil
	}

	valid, dropped := validate(duration, cuts)
	merged := mergeCuts(valid)

	kept := subtract(duration, merged)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept, dropped
}

// validate bounds-checks each decision independently, so one malformed cut
// never affects the outcome of its neighbors.
func validate(duration time.Duration, cuts []types.CutDecision) ([]types.CutDecision, []Dropped) {
	var valid []types.CutDecision
	var dropped []Dropped
	for _, c := range cuts {
		switch {
		case c.Start < 0:
			dropped = append(dropped, Dropped{Cut: c, Reason: "start before 0"})
		case c.End > duration:
			dropped = append(dropped, Dropped{Cut: c, Reason: fmt.Sprintf("end past media duration %s", duration)})
		case c.Start >= c.End:
			dropped = append(dropped, Dropped{Cut: c, Reason: "start >= end"})
		default:
			valid = append(valid, c)
		}
	}
	return valid, dropped
}

// mergeCuts collapses overlapping or touching cut spans into one.
func mergeCuts(cuts []types.CutDecision) []types.KeptRange {
	if len(cuts) == 0 {
		return nil
	}
	spans := make([]types.KeptRange, 0, len(cuts))
	for _, c := range cuts {
		spans = append(spans, types.KeptRange{Start: c.Start, End: c.End})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// subtract removes the merged cut spans from [0, duration]. Cuts arrive
// sorted and disjoint, so a single sweep suffices.
func subtract(duration time.Duration, cuts []types.KeptRange) []types.KeptRange {
	var kept []types.KeptRange
	cursor := time.Duration(0)
	for _, c := range cuts {
		if c.Start > cursor {
			kept = append(kept, types.KeptRange{Start: cursor, End: c.Start})
		}
		if c.End > cursor {
			cursor = c.End
		}
	}
	if cursor < duration {
		kept = append(kept, types.KeptRange{Start: cursor, End: duration})
	}
	return kept
}

// Total is the combined duration of a plan.
func Total(ranges []types.KeptRange) time.Duration {
	var sum time.Duration
	for _, r := range ranges {
		sum += r.Dur()
	}
	return sum
}

// FilterCategories keeps only cuts whose reason is in the allowed set. An
// empty set means all categories apply.
func FilterCategories(cuts []types.CutDecision, allowed []types.CutReason) []types.CutDecision {
	if len(allowed) == 0 {
		return cuts
	}
	set := make(map[types.CutReason]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	var out []types.CutDecision
	for _, c := range cuts {
		if _, ok := set[c.Reason]; ok {
			out = append(out, c)
		}
	}
	return out
}
