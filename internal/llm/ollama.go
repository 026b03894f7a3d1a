package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const pullTimeout = 5 * time.Minute

// OllamaClient generates text through a local or remote Ollama server.
type OllamaClient struct {
	baseURL string
	model   string
	opts    Options
	http    *http.Client
	logger  zerolog.Logger
}

// NewOllama creates an Ollama backend for the given server URL and model.
func NewOllama(baseURL, model string, opts Options, logger zerolog.Logger) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		opts:    opts,
		http:    &http.Client{},
		logger:  logger.With().Str("component", "ollama").Logger(),
	}
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string {
	return c.model
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate performs one synchronous completion call.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.opts.Temperature,
			TopP:        c.opts.TopP,
			MaxTokens:   c.opts.MaxTokens,
		},
	})
	if err != nil {
		return "", &BackendError{Backend: "ollama", Err: fmt.Errorf("marshal request: %w", err)}
	}

	start := time.Now()
	resp, err := c.postJSON(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{Backend: "ollama", Status: resp.StatusCode}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &BackendError{Backend: "ollama", Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("prompt_length", len(prompt)).
		Int("response_length", len(out.Response)).
		Dur("elapsed", time.Since(start)).
		Msg("Generation completed")

	return out.Response, nil
}

// Version returns the server version string, used as a health check.
func (c *OllamaClient) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.getJSON(ctx, "/api/version", &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

// Models lists the model names available on the server.
func (c *OllamaClient) Models(ctx context.Context) ([]string, error) {
	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &out); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether the configured model is present on the server.
// Matching is by substring, so "llama3.2" matches "llama3.2:latest".
func (c *OllamaClient) HasModel(ctx context.Context) (bool, error) {
	names, err := c.Models(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if strings.Contains(name, c.model) {
			return true, nil
		}
	}
	return false, nil
}

// Pull asks the server to download the configured model. Used by setup
// diagnostics only, never by the summarization pipeline.
func (c *OllamaClient) Pull(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pullTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"name": c.model})
	if err != nil {
		return &BackendError{Backend: "ollama", Err: err}
	}

	resp, err := c.postJSON(ctx, "/api/pull", body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &BackendError{Backend: "ollama", Status: resp.StatusCode}
	}

	c.logger.Info().Str("model", c.model).Msg("Model pull completed")
	return nil
}

func (c *OllamaClient) postJSON(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Backend: "ollama", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &BackendError{Backend: "ollama", Err: err}
	}
	return resp, nil
}

func (c *OllamaClient) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &BackendError{Backend: "ollama", Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &BackendError{Backend: "ollama", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &BackendError{Backend: "ollama", Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &BackendError{Backend: "ollama", Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
