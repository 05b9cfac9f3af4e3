package transcriber

import (
	"github.com/nguyentantai21042004/course-flow/internal/config"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/pkg/executor"
)

type implRemote struct {
	api    AudioAPI
	logger logger.Logger
}

// NewRemote transcribes through an OpenAI-compatible audio API.
func NewRemote(api AudioAPI, log logger.Logger) Transcriber {
	return &implRemote{
		api:    api,
		logger: log,
	}
}

type implWhisper struct {
	cfg      config.WhisperConfig
	executor executor.Executor
	logger   logger.Logger
}

// NewWhisper transcribes locally with the whisper.cpp binary.
func NewWhisper(cfg config.WhisperConfig, exec executor.Executor, log logger.Logger) Transcriber {
	return &implWhisper{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}
