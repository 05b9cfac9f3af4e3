package structure

import (
	"context"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

// Proposer turns a full transcript into candidate topic spans.
type Proposer interface {
	Propose(ctx context.Context, transcript types.Transcript) ([]types.CandidateSpan, error)
}

// Completer is the JSON-mode language model used for structure discovery.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}
