// Package providers implements the advisory model backends. Each backend
// makes exactly one HTTP attempt per call, bounded by the caller's context
// deadline; retry policy belongs to callers, and the advisory channel
// deliberately has none.
package providers

import (
	"context"
	"fmt"
)

// Request carries the prompts for one advisory proposal call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// Response is the raw model output.
type Response struct {
	Content    string
	TokensUsed int
}

// Client is the advisory backend abstraction.
type Client interface {
	// Propose sends one request and returns the raw response. It honors
	// ctx cancellation and never retries.
	Propose(ctx context.Context, req Request) (Response, error)
	Name() string
	Model() string
}

// Options configures a backend. Credentials are resolved by the caller at
// startup and passed in explicitly; backends perform no environment lookups.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// New creates a backend by provider name.
func New(opts Options) (Client, error) {
	switch opts.Provider {
	case "anthropic":
		return NewAnthropic(opts)
	case "openai":
		return NewOpenAI(opts)
	case "gemini":
		return NewGemini(opts)
	case "ollama", "lmstudio":
		return NewOllama(opts)
	default:
		return nil, fmt.Errorf("unknown advisory provider: %s", opts.Provider)
	}
}
