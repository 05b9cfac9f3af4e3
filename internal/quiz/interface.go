package quiz

import (
	"context"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// Generator produces the final assessment from course text. It never
// fails: any problem yields an empty quiz.
type Generator interface {
	Generate(ctx context.Context, source string) []types.QuizItem
}

// Completer is the JSON-mode language model used to write questions.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}
