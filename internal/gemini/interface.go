package gemini

import (
	"context"

	"google.golang.org/genai"
)

// Client drafts structure, notes and quiz payloads with Gemini models.
type Client interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
	GenerateNotes(ctx context.Context, prompt string, frames [][]byte) (string, error)
}

// generator is the slice of the genai SDK the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}
