package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths         PathsConfig         `yaml:"paths"`
	FFmpeg        FFmpegConfig        `yaml:"ffmpeg"`
	Whisper       WhisperConfig       `yaml:"whisper"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	LLM           LLMConfig           `yaml:"llm"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Course        CourseConfig        `yaml:"course"`
	Storage       StorageConfig       `yaml:"storage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Performance   PerformanceConfig   `yaml:"performance"`
}

type PathsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Temp   string `yaml:"temp"`
	Ledger string `yaml:"ledger"`
}

type FFmpegConfig struct {
	VideoBitrate string `yaml:"video_bitrate"`
	AudioCodec   string `yaml:"audio_codec"`
	Encoder      string `yaml:"encoder"`
	Preset       string `yaml:"preset"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type TranscriptionConfig struct {
	// Provider is "openai" (OpenAI-compatible HTTP API) or "whisper" (local binary).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type LLMConfig struct {
	// Provider is "openai" (OpenAI-compatible, Groq by default) or "gemini".
	Provider          string   `yaml:"provider"`
	BaseURL           string   `yaml:"base_url"`
	APIKeys           []string `yaml:"api_keys"`
	APIKeyEnv         string   `yaml:"api_key_env"`
	StructureModel    string   `yaml:"structure_model"`
	VisionModel       string   `yaml:"vision_model"`
	Vision            *bool    `yaml:"vision"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
}

type GeminiConfig struct {
	APIKeys   []string `yaml:"api_keys"`
	APIKeyEnv string   `yaml:"api_key_env"`
	Model     string   `yaml:"model"`
}

type CourseConfig struct {
	MinDuration    *float64       `yaml:"min_duration"`
	FrameCount     int            `yaml:"frame_count"`
	Pacing         *time.Duration `yaml:"pacing"`
	QuizSource     string         `yaml:"quiz_source"`
	QuizCharBudget *int           `yaml:"quiz_char_budget"`
	ExportDocx     bool           `yaml:"export_docx"`
}

type StorageConfig struct {
	// Backend is "local" or "gcs".
	Backend         string `yaml:"backend"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderWhisper = "whisper"

	BackendLocal = "local"
	BackendGCS   = "gcs"

	QuizFromNotes      = "notes"
	QuizFromTranscript = "transcript"
)

// Load reads a YAML config file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}

	c.applyDefaults()

	switch c.Transcription.Provider {
	case ProviderOpenAI:
	case ProviderWhisper:
		if c.Whisper.ModelPath == "" {
			return fmt.Errorf("whisper.model_path is required for the whisper provider")
		}
		if c.Whisper.BinaryPath == "" {
			return fmt.Errorf("whisper.binary_path is required for the whisper provider")
		}
	default:
		return fmt.Errorf("transcription.provider %q is not supported", c.Transcription.Provider)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}

	switch c.Storage.Backend {
	case BackendLocal:
	case BackendGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}

	switch c.Course.QuizSource {
	case QuizFromNotes, QuizFromTranscript:
	default:
		return fmt.Errorf("course.quiz_source %q is not supported", c.Course.QuizSource)
	}

	if c.MinDuration() < 0 {
		return fmt.Errorf("course.min_duration must not be negative")
	}
	if c.Course.FrameCount < 0 {
		return fmt.Errorf("course.frame_count must not be negative")
	}
	if c.Pacing() < 0 {
		return fmt.Errorf("course.pacing must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}
	if c.Paths.Ledger == "" {
		c.Paths.Ledger = "data/course.db"
	}
	if c.FFmpeg.Encoder == "" {
		c.FFmpeg.Encoder = "libx264"
	}
	if c.FFmpeg.Preset == "" {
		c.FFmpeg.Preset = "medium"
	}
	if c.FFmpeg.AudioCodec == "" {
		c.FFmpeg.AudioCodec = "aac"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "auto"
	}
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = ProviderOpenAI
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "whisper-large-v3"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenAI
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "GROQ_API_KEY"
	}
	if c.LLM.StructureModel == "" {
		c.LLM.StructureModel = "llama-3.3-70b-versatile"
	}
	if c.LLM.VisionModel == "" {
		c.LLM.VisionModel = "llama-3.2-90b-vision-preview"
	}
	if c.LLM.Vision == nil {
		vision := true
		c.LLM.Vision = &vision
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 120
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.APIKeyEnv == "" {
		c.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Course.MinDuration == nil {
		minDuration := 60.0
		c.Course.MinDuration = &minDuration
	}
	if c.Course.FrameCount == 0 {
		c.Course.FrameCount = 5
	}
	if c.Course.Pacing == nil {
		pacing := 5 * time.Second
		c.Course.Pacing = &pacing
	}
	if c.Course.QuizSource == "" {
		c.Course.QuizSource = QuizFromNotes
	}
	if c.Course.QuizCharBudget == nil {
		budget := 15000
		c.Course.QuizCharBudget = &budget
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendLocal
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 1
	}
}

// LLMKeys returns the configured OpenAI-compatible API keys, falling back to
// the environment variable named by llm.api_key_env.
func (c *Config) LLMKeys() []string {
	return keysOrEnv(c.LLM.APIKeys, c.LLM.APIKeyEnv)
}

// GeminiKeys returns the configured Gemini API keys, falling back to the
// environment variable named by gemini.api_key_env.
func (c *Config) GeminiKeys() []string {
	return keysOrEnv(c.Gemini.APIKeys, c.Gemini.APIKeyEnv)
}

// VisionEnabled reports whether the notes model accepts images.
func (c *Config) VisionEnabled() bool {
	return c.LLM.Vision == nil || *c.LLM.Vision
}

// MinDuration returns the shortest allowed module in seconds; zero keeps
// every proposed span.
func (c *Config) MinDuration() float64 {
	if c.Course.MinDuration == nil {
		return 0
	}
	return *c.Course.MinDuration
}

// Pacing returns the delay between modules; zero disables it.
func (c *Config) Pacing() time.Duration {
	if c.Course.Pacing == nil {
		return 0
	}
	return *c.Course.Pacing
}

// QuizBudget returns the quiz character budget; zero disables truncation.
func (c *Config) QuizBudget() int {
	if c.Course.QuizCharBudget == nil {
		return 0
	}
	return *c.Course.QuizCharBudget
}

func keysOrEnv(keys []string, env string) []string {
	var out []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) > 0 || env == "" {
		return out
	}
	// Comma-separated lists let a single variable carry rotation keys.
	for _, k := range strings.Split(os.Getenv(env), ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
