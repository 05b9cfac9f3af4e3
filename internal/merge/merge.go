// Package merge turns proposed topic spans into course modules.
//
// Candidates are merged until every module lasts at least the minimum
// duration (a lone module is kept whatever its length) and no two modules
// overlap. Merging only ever widens ranges, so the time covered by the
// candidates is exactly the time covered by the modules.
package merge

import (
	"errors"
	"fmt"
	"math"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

var (
	ErrUnordered   = errors.New("candidates are not in chronological order")
	ErrInvalidSpan = errors.New("invalid candidate span")
)

// Merge normalizes candidates into modules. Candidates must be ordered by
// start time; list position decides which neighbour a short span joins.
func Merge(candidates []types.CandidateSpan, minDuration float64) ([]types.Module, error) {
	if len(candidates) == 0 {
		return []types.Module{}, nil
	}
	if err := checkOrder(candidates); err != nil {
		return nil, err
	}

	spans := make([]types.Module, len(candidates))
	for i, c := range candidates {
		spans[i] = types.Module(c)
	}

	for len(spans) > 1 {
		i := shortest(spans, minDuration)
		if i < 0 {
			break
		}
		spans = absorb(spans, i)
	}

	// Coalescing never shortens a span, so no short span can reappear here.
	for len(spans) > 1 {
		i := firstOverlap(spans)
		if i < 0 {
			break
		}
		spans = splice(spans, i, join(spans[i], spans[i+1], true))
	}

	return spans, nil
}

func checkOrder(candidates []types.CandidateSpan) error {
	for i, c := range candidates {
		if !finite(c.StartTime) || !finite(c.EndTime) {
			return fmt.Errorf("%w: #%d %q has a non-finite bound", ErrInvalidSpan, i, c.TopicName)
		}
		if c.EndTime < c.StartTime {
			return fmt.Errorf("%w: #%d %q (%.2fs - %.2fs)", ErrInvalidSpan, i, c.TopicName, c.StartTime, c.EndTime)
		}
		if i > 0 && c.StartTime < candidates[i-1].StartTime {
			return fmt.Errorf("%w: #%d %q starts at %.2fs, before #%d at %.2fs",
				ErrUnordered, i, c.TopicName, c.StartTime, i-1, candidates[i-1].StartTime)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// shortest returns the index of the shortest span below minDuration, the
// earliest one on ties, or -1 when every span is long enough.
func shortest(spans []types.Module, minDuration float64) int {
	best := -1
	for i, s := range spans {
		d := s.Duration()
		if d >= minDuration {
			continue
		}
		if best < 0 || d < spans[best].Duration() {
			best = i
		}
	}
	return best
}

// absorb merges the span at i into its previous neighbour, or into the next
// one when i is first. On equal durations the previous span keeps its name
// in the first case and the next span keeps its name in the second.
func absorb(spans []types.Module, i int) []types.Module {
	if i > 0 {
		return splice(spans, i-1, join(spans[i-1], spans[i], true))
	}
	return splice(spans, 0, join(spans[0], spans[1], false))
}

// join unions two adjacent spans. The longer input names the result;
// earlierWins decides equal durations.
func join(earlier, later types.Module, earlierWins bool) types.Module {
	name := later.TopicName
	de, dl := earlier.Duration(), later.Duration()
	if de > dl || (de == dl && earlierWins) {
		name = earlier.TopicName
	}
	return types.Module{
		TopicName: name,
		StartTime: min(earlier.StartTime, later.StartTime),
		EndTime:   max(earlier.EndTime, later.EndTime),
	}
}

// splice returns a new sequence with spans[i] and spans[i+1] replaced by merged.
func splice(spans []types.Module, i int, merged types.Module) []types.Module {
	out := make([]types.Module, 0, len(spans)-1)
	out = append(out, spans[:i]...)
	out = append(out, merged)
	out = append(out, spans[i+2:]...)
	return out
}

func firstOverlap(spans []types.Module) int {
	for i := 0; i+1 < len(spans); i++ {
		if spans[i+1].StartTime < spans[i].EndTime {
			return i
		}
	}
	return -1
}
