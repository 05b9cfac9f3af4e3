package quiz

import (
	"github.com/nguyentantai21042004/course-flow/internal/logger"
)

type implGenerator struct {
	llm    Completer
	budget int
	logger logger.Logger
}

// New creates a Generator. Source text longer than budget runes is
// truncated before sending; budget <= 0 sends it whole.
func New(llm Completer, budget int, log logger.Logger) Generator {
	return &implGenerator{
		llm:    llm,
		budget: budget,
		logger: log,
	}
}
