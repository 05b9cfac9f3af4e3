package quiz

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nguyentantai21042004/course-flow/internal/llm"
	"github.com/nguyentantai21042004/course-flow/internal/types"
)

const quizTemperature = 0.2

const examinerPrompt = `You are an expert Examiner. Create a Final Assessment Quiz based on the provided course transcript/content.
Create 5-10 multiple choice questions that test deep understanding.

Return ONLY a raw JSON array:
[
  {
    "question": "What is the primary function of...",
    "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
    "correct_answer": "B) Option 2",
    "explanation": "Option 2 is correct because..."
  }
]`

func (g *implGenerator) Generate(ctx context.Context, source string) []types.QuizItem {
	source = strings.TrimSpace(source)
	if source == "" {
		g.logger.Warn(ctx, "Quiz source is empty, skipping quiz")
		return []types.QuizItem{}
	}
	source = Truncate(source, g.budget)

	user := "Here is the full course transcript. Generate the quiz based on this:\n\n" + source
	raw, err := g.llm.CompleteJSON(ctx, examinerPrompt, user, quizTemperature)
	if err != nil {
		g.logger.Error(ctx, "Error generating quiz: %v", err)
		return []types.QuizItem{}
	}

	items, err := llm.ExtractArray(raw)
	if err != nil {
		g.logger.Error(ctx, "Quiz payload unusable: %v", err)
		return []types.QuizItem{}
	}

	out := make([]types.QuizItem, 0, len(items))
	for i, item := range items {
		var q types.QuizItem
		if err := json.Unmarshal(item, &q); err != nil {
			g.logger.Warn(ctx, "Skipping quiz item %d: %v", i, err)
			continue
		}
		if !q.Valid() {
			g.logger.Warn(ctx, "Skipping quiz item %d: correct answer not among options", i)
			continue
		}
		out = append(out, q)
	}
	g.logger.Info(ctx, "Quiz generated with %d questions", len(out))
	return out
}

// Truncate keeps at most limit runes of s. limit <= 0 keeps everything.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
