// Package llm abstracts the text-generation backend behind a single
// synchronous prompt-to-text call, with Ollama and Gemini implementations.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Generator produces text from a prompt. Calls are synchronous with a
// bounded timeout and no retry; the summarization pipeline degrades a
// failure into visible error text rather than aborting.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Options holds the sampling parameters shared by all backends.
type Options struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
}

// BackendError reports a generation backend that could not serve a request.
type BackendError struct {
	Backend string
	Status  int
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("%s backend: unexpected status %d", e.Backend, e.Status)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
