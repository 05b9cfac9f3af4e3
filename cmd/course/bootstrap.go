package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/course-flow/internal/config"
	"github.com/nguyentantai21042004/course-flow/internal/course"
	"github.com/nguyentantai21042004/course-flow/internal/gemini"
	"github.com/nguyentantai21042004/course-flow/internal/ledger"
	"github.com/nguyentantai21042004/course-flow/internal/llm"
	"github.com/nguyentantai21042004/course-flow/internal/logger"
	"github.com/nguyentantai21042004/course-flow/internal/media"
	"github.com/nguyentantai21042004/course-flow/internal/pipeline"
	"github.com/nguyentantai21042004/course-flow/internal/quiz"
	"github.com/nguyentantai21042004/course-flow/internal/store"
	"github.com/nguyentantai21042004/course-flow/internal/structure"
	"github.com/nguyentantai21042004/course-flow/internal/transcriber"
	"github.com/nguyentantai21042004/course-flow/pkg/executor"
)

// languageModel is what the course stages need from an LLM backend.
type languageModel interface {
	structure.Completer
	pipeline.NotesWriter
}

// app holds the long-lived collaborators shared by every run.
type app struct {
	cfg         *config.Config
	log         logger.Logger
	ledger      *ledger.Store
	toolkit     media.Toolkit
	transcriber transcriber.Transcriber
	model       languageModel
}

func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}

	exec := executor.New()
	a := &app{
		cfg:     cfg,
		log:     log,
		toolkit: media.New(cfg.FFmpeg, cfg.Paths.Temp, exec, log),
	}

	var remote *llm.Client
	openAI := func() (*llm.Client, error) {
		if remote != nil {
			return remote, nil
		}
		keys := cfg.LLMKeys()
		if len(keys) == 0 {
			return nil, fmt.Errorf("no API key: set llm.api_keys or %s", cfg.LLM.APIKeyEnv)
		}
		remote = llm.NewClient(llmConfig(cfg, keys[0]))
		return remote, nil
	}

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		g, err := gemini.New(cfg.GeminiKeys(), cfg.Gemini.Model, log)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		a.model = g
	default:
		c, err := openAI()
		if err != nil {
			return nil, err
		}
		a.model = c
	}

	switch cfg.Transcription.Provider {
	case config.ProviderWhisper:
		a.transcriber = transcriber.NewWhisper(cfg.Whisper, exec, log)
	default:
		c, err := openAI()
		if err != nil {
			return nil, err
		}
		a.transcriber = transcriber.NewRemote(c, log)
	}

	led, err := ledger.Open(cfg.Paths.Ledger)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	a.ledger = led
	return a, nil
}

func (a *app) Close() error {
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}

// generate runs one video end to end, writing artifacts to its own output
// location.
func (a *app) generate(ctx context.Context, videoPath string) (*course.Result, error) {
	st, err := a.openStore(ctx, videoStem(videoPath))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			a.log.Warn(ctx, "Failed to close store: %v", err)
		}
	}()

	cfg := a.cfg
	processor := pipeline.New(a.model, st, pipeline.Options{
		FrameCount: cfg.Course.FrameCount,
		Vision:     cfg.VisionEnabled(),
		ExportDocx: cfg.Course.ExportDocx,
	}, a.log)

	orchestrator := course.New(course.Deps{
		Media:       a.toolkit,
		Transcriber: a.transcriber,
		Proposer:    structure.New(a.model, a.log),
		Processor:   processor,
		Quiz:        quiz.New(a.model, cfg.QuizBudget(), a.log),
		Store:       st,
		Recorder:    a.ledger,
	}, course.Options{
		MinDuration: cfg.MinDuration(),
		Pacing:      cfg.Pacing(),
		QuizSource:  cfg.Course.QuizSource,
	}, a.log)

	return orchestrator.Run(ctx, videoPath)
}

func (a *app) openStore(ctx context.Context, name string) (store.Store, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendGCS:
		return store.NewGCS(ctx, a.cfg.Storage.Bucket, path.Join(a.cfg.Storage.Prefix, name), a.cfg.Storage.CredentialsFile)
	default:
		return store.NewLocal(filepath.Join(a.cfg.Paths.Output, name))
	}
}

func llmConfig(cfg *config.Config, apiKey string) llm.Config {
	return llm.Config{
		APIKey:             apiKey,
		BaseURL:            cfg.LLM.BaseURL,
		StructureModel:     cfg.LLM.StructureModel,
		VisionModel:        cfg.LLM.VisionModel,
		TranscriptionModel: cfg.Transcription.Model,
		TimeoutSeconds:     cfg.LLM.TimeoutSeconds,
		RequestsPerMinute:  cfg.LLM.RequestsPerMinute,
	}
}

// videoStem names a video's output directory after its file name.
func videoStem(videoPath string) string {
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.TrimSpace(stem)
	if stem == "" || stem == "." {
		return "course"
	}
	return stem
}

func ensureDirectories(cfg *config.Config) error {
	dirs := []string{cfg.Paths.Input, cfg.Paths.Temp, filepath.Dir(cfg.Paths.Ledger)}
	if cfg.Storage.Backend == config.BackendLocal {
		dirs = append(dirs, cfg.Paths.Output)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
