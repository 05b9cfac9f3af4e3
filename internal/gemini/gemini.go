package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const notesTemperature = 0.7

// CompleteJSON asks for a JSON response with the system prompt as instruction.
func (c *implClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(temperature),
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	return c.generate(ctx, genai.Text(userPrompt), cfg)
}

// GenerateNotes sends the prompt with frames as inline JPEG parts.
func (c *implClient) GenerateNotes(ctx context.Context, prompt string, frames [][]byte) (string, error) {
	parts := make([]*genai.Part, 0, len(frames)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, f := range frames {
		parts = append(parts, genai.NewPartFromBytes(f, "image/jpeg"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](notesTemperature)}
	return c.generate(ctx, contents, cfg)
}

// generate tries each API key at most once, rotating on 429 / quota errors.
func (c *implClient) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	attempts := len(c.apiKeys)
	var lastErr error

	for range attempts {
		idx, key := c.key()

		client, err := c.newClient(ctx, key)
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			c.rotateKey(idx)
			continue
		}

		result, err := client.GenerateContent(ctx, c.model, contents, cfg)
		if err != nil {
			if rateLimited(err) {
				c.logger.Warn(ctx, "Gemini key %d rate limited, rotating...", idx+1)
				c.rotateKey(idx)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if text := responseText(result); text != "" {
			return text, nil
		}
		return "", errors.New("empty response from Gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (c *implClient) key() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentKey, c.apiKeys[c.currentKey]
}

// rotateKey advances past idx unless another caller already has.
func (c *implClient) rotateKey(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentKey == idx {
		c.currentKey = (c.currentKey + 1) % len(c.apiKeys)
	}
}

func rateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}
