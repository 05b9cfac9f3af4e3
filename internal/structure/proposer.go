package structure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/course-flow/internal/llm"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

const discoveryTemperature = 0.1

const discoveryPrompt = `You are an expert Instructional Designer. Analyze the provided VIDEO TRANSCRIPT and break the video down into distinct learning modules (topics).
The transcript is provided with exact timestamps in the format: ` + "`[start-end]: text`" + `.
The transcript may be in any language or a mix of languages. Output the structure strictly in English.

Your goal is to identify the logical flow of the content and map it to specific time ranges.
For each module:
1. Identify the main topic being discussed (in English).
2. Use the provided timestamp ranges to determine the exact start and end time.
3. Ensure modules do not overlap and cover the entire meaningful content.

Return ONLY a raw JSON array:
[
  {"topic_name": "Introduction to React", "start_time": 0.0, "end_time": 15.5},
  {"topic_name": "Setting up the Environment", "start_time": 15.5, "end_time": 120.0}
]`

// ErrEmptyTranscript is returned when there is nothing to analyse.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Propose asks the model for candidate spans and normalizes its payload.
// Candidate order is kept as returned.
func (p *implProposer) Propose(ctx context.Context, transcript types.Transcript) ([]types.CandidateSpan, error) {
	if transcript.Empty() {
		return nil, ErrEmptyTranscript
	}

	user := "Here is the timestamped video transcript:\n\n" + transcript.Lines()
	raw, err := p.llm.CompleteJSON(ctx, discoveryPrompt, user, discoveryTemperature)
	if err != nil {
		return nil, fmt.Errorf("propose structure: %w", err)
	}

	spans, err := p.parse(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("propose structure: %w", err)
	}
	p.logger.Info(ctx, "Proposer returned %d candidate spans", len(spans))
	return spans, nil
}

// parse converts a raw model payload into usable candidate spans. Items
// missing a field, with non-finite times, or whose end precedes their start,
// are dropped.
func (p *implProposer) parse(ctx context.Context, raw string) ([]types.CandidateSpan, error) {
	items, err := llm.ExtractArray(raw)
	if err != nil {
		return nil, err
	}

	spans := make([]types.CandidateSpan, 0, len(items))
	for i, item := range items {
		span, err := decodeSpan(item)
		if err != nil {
			p.logger.Warn(ctx, "Skipping invalid candidate %d: %v", i, err)
			continue
		}
		spans = append(spans, span)
	}
	return spans, nil
}

func decodeSpan(item json.RawMessage) (types.CandidateSpan, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return types.CandidateSpan{}, fmt.Errorf("not an object: %s", strings.TrimSpace(string(item)))
	}

	rawName, ok := fields["topic_name"]
	if !ok {
		return types.CandidateSpan{}, errors.New("missing topic_name")
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil || strings.TrimSpace(name) == "" {
		return types.CandidateSpan{}, errors.New("topic_name is not a non-empty string")
	}

	start, err := seconds(fields, "start_time")
	if err != nil {
		return types.CandidateSpan{}, err
	}
	end, err := seconds(fields, "end_time")
	if err != nil {
		return types.CandidateSpan{}, err
	}
	if end < start {
		return types.CandidateSpan{}, fmt.Errorf("end_time %.2f before start_time %.2f", end, start)
	}

	return types.CandidateSpan{
		TopicName: strings.TrimSpace(name),
		StartTime: start,
		EndTime:   end,
	}, nil
}

// seconds reads a finite, non-negative numeric field, accepting numbers
// encoded as strings.
func seconds(fields map[string]json.RawMessage, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%s is not a number", key)
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "s")), 64)
		if err != nil {
			return 0, fmt.Errorf("%s is not a number: %q", key, s)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is not finite", key)
	}
	if f < 0 {
		return 0, fmt.Errorf("%s is negative", key)
	}
	return f, nil
}
