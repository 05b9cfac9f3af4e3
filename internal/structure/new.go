package structure

import (
	"github.com/nguyentantai21042004/course-flow/internal/logger"
)

type implProposer struct {
	llm    Completer
	logger logger.Logger
}

// New creates a Proposer backed by the given completer.
func New(llm Completer, log logger.Logger) Proposer {
	return &implProposer{
		llm:    llm,
		logger: log,
	}
}
