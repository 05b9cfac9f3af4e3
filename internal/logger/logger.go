package logger

import (
	"context"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type implLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// New creates a console logger at the given level.
func New(level string) Logger {
	return NewWithFormat(level, "text")
}

// NewWithFormat creates a logger writing to stdout. Format "json" selects the
// production JSON encoder; anything else uses the console encoder, coloured
// when stdout is a terminal.
func NewWithFormat(level, format string) Logger {
	atom := zap.NewAtomicLevelAt(parseLevel(level))

	var encoder zapcore.Encoder
	if strings.EqualFold(format, "json") {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		if isatty.IsTerminal(os.Stdout.Fd()) {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.CallerKey = ""
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atom)
	return &implLogger{
		sugar: zap.New(core).Sugar(),
		level: atom,
	}
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() Logger {
	return &implLogger{
		sugar: zap.NewNop().Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

// parseLevel maps a config level onto zap, defaulting to info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *implLogger) shouldLog(level string) bool {
	return l.level.Enabled(parseLevel(level))
}

func (l *implLogger) withContext(ctx context.Context) *zap.SugaredLogger {
	if id := RunID(ctx); id != "" {
		return l.sugar.With("run_id", id)
	}
	return l.sugar
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.withContext(ctx).Debugf(msg, args...)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.withContext(ctx).Infof(msg, args...)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.withContext(ctx).Warnf(msg, args...)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.withContext(ctx).Errorf(msg, args...)
}

func (l *implLogger) With(keysAndValues ...interface{}) Logger {
	return &implLogger{
		sugar: l.sugar.With(keysAndValues...),
		level: l.level,
	}
}

func (l *implLogger) Sync() error {
	return l.sugar.Sync()
}
