package media

import (
	"github.com/nguyentantai21042004/course-flow/internal/config"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/pkg/executor"
)

type implToolkit struct {
	cfg      config.FFmpegConfig
	tempRoot string
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Toolkit that shells out to ffmpeg and ffprobe.
func New(cfg config.FFmpegConfig, tempRoot string, exec executor.Executor, log logger.Logger) Toolkit {
	return &implToolkit{
		cfg:      cfg,
		tempRoot: tempRoot,
		executor: exec,
		logger:   log,
	}
}
