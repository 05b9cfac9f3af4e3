package gemini

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/course-flow/internal/logger"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

type implClient struct {
	apiKeys    []string
	model      string
	logger     logger.Logger
	newClient  func(ctx context.Context, apiKey string) (generator, error)
	mu         sync.Mutex
	currentKey int
}

// New creates a Client that rotates through the supplied Gemini API keys.
func New(apiKeys []string, model string, log logger.Logger) (Client, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("gemini: at least one api key required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &implClient{
		apiKeys:   apiKeys,
		model:     model,
		logger:    log,
		newClient: newGenaiClient,
	}, nil
}

func newGenaiClient(ctx context.Context, apiKey string) (generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}
