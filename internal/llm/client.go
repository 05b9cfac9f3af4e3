// Package llm talks to OpenAI-compatible chat, transcription and model
// listing endpoints (Groq by default).
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nguyentantai21042004/course-flow/internal/types"
)

const (
	jsonResponseType      = "json_object"
	notesTemperature      = 0.7
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryAttempts  = 4
)

// Config captures the runtime settings required to talk to the API.
type Config struct {
	APIKey             string
	BaseURL            string
	StructureModel     string
	VisionModel        string
	TranscriptionModel string
	TimeoutSeconds     int
	RequestsPerMinute  int
}

// Client wraps the OpenAI-compatible REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:             strings.TrimSpace(cfg.APIKey),
			BaseURL:            strings.TrimSpace(cfg.BaseURL),
			StructureModel:     strings.TrimSpace(cfg.StructureModel),
			VisionModel:        strings.TrimSpace(cfg.VisionModel),
			TranscriptionModel: strings.TrimSpace(cfg.TranscriptionModel),
			TimeoutSeconds:     cfg.TimeoutSeconds,
			RequestsPerMinute:  cfg.RequestsPerMinute,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	if cfg.RequestsPerMinute > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	return client
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// chatMessage content is either a string or a list of contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, snippet(e.Body))
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q)", e.Op, e.FinishReason, e.Refusal)
}

// CompleteJSON issues a JSON-mode chat completion against the structure model.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return "", errors.New("llm complete: system prompt required")
	}
	if strings.TrimSpace(userPrompt) == "" {
		return "", errors.New("llm complete: user prompt required")
	}
	payload := chatCompletionRequest{
		Model: c.cfg.StructureModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    temperature,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	return c.chat(ctx, payload, "llm complete")
}

// GenerateNotes sends a prompt plus inline JPEG frames to the vision model.
// With no frames the prompt is sent as plain text. A model that rejects
// image parts yields an error wrapping types.ErrUnsupportedInputKind.
func (c *Client) GenerateNotes(ctx context.Context, prompt string, frames [][]byte) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("llm notes: prompt required")
	}

	var content any = prompt
	if len(frames) > 0 {
		parts := make([]contentPart, 0, len(frames)+1)
		parts = append(parts, contentPart{Type: "text", Text: prompt})
		for _, f := range frames {
			parts = append(parts, contentPart{
				Type:     "image_url",
				ImageURL: &imageURL{URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(f)},
			})
		}
		content = parts
	}

	payload := chatCompletionRequest{
		Model:       c.cfg.VisionModel,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		Temperature: notesTemperature,
	}
	out, err := c.chat(ctx, payload, "llm notes")
	if err != nil && len(frames) > 0 && rejectsImages(err) {
		return "", fmt.Errorf("%w: %s: %w", types.ErrUnsupportedInputKind, c.cfg.VisionModel, err)
	}
	return out, err
}

// rejectsImages recognises the provider's complaint that message content
// must be a plain string, i.e. the model is text-only.
func rejectsImages(err error) bool {
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	if statusErr.StatusCode != http.StatusBadRequest && statusErr.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	body := strings.ToLower(statusErr.Body)
	switch {
	case strings.Contains(body, "content") && strings.Contains(body, "string"):
		return true
	case strings.Contains(body, "image") && (strings.Contains(body, "not support") || strings.Contains(body, "unsupported")):
		return true
	default:
		return false
	}
}

func (c *Client) chat(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%s: api key required", op)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}

	var content string
	err = c.withRetry(ctx, op, func() error {
		body, err := c.send(ctx, http.MethodPost, "chat/completions", "application/json", encoded)
		if err != nil {
			return err
		}
		var completion chatCompletionResponse
		if err := json.Unmarshal(body, &completion); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		if completion.Error != nil {
			return fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(completion.Error.Message))
		}
		if len(completion.Choices) == 0 {
			return fmt.Errorf("%s: empty choices", op)
		}
		choice := completion.Choices[0]
		content = strings.TrimSpace(choice.Message.Content)
		if content == "" {
			return &emptyContentError{Op: op, FinishReason: choice.FinishReason, Refusal: choice.Message.Refusal}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads an audio file and returns a segmented transcript when
// the service provides segments, or a text-only transcript otherwise.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (types.Transcript, error) {
	if c.cfg.APIKey == "" {
		return types.Transcript{}, errors.New("llm transcribe: api key required")
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("llm transcribe: read audio: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return types.Transcript{}, fmt.Errorf("llm transcribe: form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return types.Transcript{}, fmt.Errorf("llm transcribe: write audio: %w", err)
	}
	_ = mw.WriteField("model", c.cfg.TranscriptionModel)
	_ = mw.WriteField("response_format", "verbose_json")
	if err := mw.Close(); err != nil {
		return types.Transcript{}, fmt.Errorf("llm transcribe: close form: %w", err)
	}
	form := buf.Bytes()

	var parsed transcriptionResponse
	err = c.withRetry(ctx, "llm transcribe", func() error {
		body, err := c.send(ctx, http.MethodPost, "audio/transcriptions", mw.FormDataContentType(), form)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("llm transcribe: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Transcript{}, err
	}

	tr := types.Transcript{Text: strings.TrimSpace(parsed.Text)}
	for _, s := range parsed.Segments {
		tr.Segments = append(tr.Segments, types.TranscriptSegment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return tr, nil
}

// ListModels returns the model ids the API key can use.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("llm models: api key required")
	}
	var ids []string
	err := c.withRetry(ctx, "llm models", func() error {
		body, err := c.send(ctx, http.MethodGet, "models", "", nil)
		if err != nil {
			return err
		}
		var parsed struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("llm models: decode response: %w", err)
		}
		ids = ids[:0]
		for _, m := range parsed.Data {
			ids = append(ids, m.ID)
		}
		return nil
	})
	return ids, err
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return nil, fmt.Errorf("llm request: build url: %w", err)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("llm request: rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
			RetryAfter: retryAfter,
		}
	}
	return data, nil
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var emptyErr *emptyContentError
	if errors.As(err, &emptyErr) {
		return c.backoffDelay(attempt), true
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles from the base delay: attempt 1 -> base, 2 -> base*2, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.retryBaseDelay
	if delay <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.retryMaxDelay {
			break
		}
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
