package pipeline

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// BaseName is the artifact stem for the module at index: "{index+1}_{topic}"
// with spaces as underscores and slashes as dashes.
func BaseName(index int, topic string) string {
	clean := strings.ReplaceAll(topic, " ", "_")
	clean = strings.ReplaceAll(clean, "/", "-")
	return fmt.Sprintf("%d_%s", index+1, clean)
}

// SliceTranscript returns the segments whose start lies in [start, end].
// Segments are never split.
func SliceTranscript(segments []types.TranscriptSegment, start, end float64) []types.TranscriptSegment {
	var out []types.TranscriptSegment
	for _, s := range segments {
		if s.Start >= start && s.Start <= end {
			out = append(out, s)
		}
	}
	return out
}

// FrameTimes spreads n timestamps evenly from start to just before end.
// It returns nil when the range is empty.
func FrameTimes(start, end float64, n int) []float64 {
	if n <= 0 || start >= end {
		return nil
	}
	last := end - 0.1
	if last < start {
		last = start
	}
	if n == 1 || last == start {
		return []float64{start}
	}
	step := (last - start) / float64(n-1)
	times := make([]float64, n)
	for i := range times {
		times[i] = start + step*float64(i)
	}
	return times
}
