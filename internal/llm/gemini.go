package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GeminiClient generates text through the hosted Gemini API. It satisfies
// the same Generator contract as the Ollama backend.
type GeminiClient struct {
	apiKey string
	model  string
	opts   Options
	logger zerolog.Logger

	mu     sync.Mutex
	client *genai.Client
}

// NewGemini creates a Gemini backend. The underlying API client is created
// lazily on first use and reused afterwards.
func NewGemini(apiKey, model string, opts Options, logger zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey: apiKey,
		model:  model,
		opts:   opts,
		logger: logger.With().Str("component", "gemini").Logger(),
	}
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// getClient returns or creates the genai client (thread-safe).
func (c *GeminiClient) getClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c.client = client
	c.logger.Info().Msg("Gemini client created and cached")
	return c.client, nil
}

// Close closes the backend and releases resources.
func (c *GeminiClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to close Gemini client")
		return err
	}
	c.logger.Info().Msg("Gemini client closed")
	return nil
}

// Generate performs one synchronous completion call.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return "", &BackendError{Backend: "gemini", Err: err}
	}

	model := client.GenerativeModel(c.model)
	model.SetTemperature(c.opts.Temperature)
	model.SetTopP(c.opts.TopP)
	model.SetMaxOutputTokens(int32(c.opts.MaxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &BackendError{Backend: "gemini", Err: fmt.Errorf("failed to generate content: %w", err)}
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", &BackendError{Backend: "gemini", Err: fmt.Errorf("no response candidates")}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &BackendError{Backend: "gemini", Err: fmt.Errorf("no content parts in response")}
	}

	var out strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("prompt_length", len(prompt)).
		Int("response_length", out.Len()).
		Msg("Generation completed")

	return out.String(), nil
}
