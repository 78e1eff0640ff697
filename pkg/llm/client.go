// Package llm provides a provider-neutral completion client. OpenAI is the
// default backend; Anthropic sits behind the same interface. Callers treat
// any error as "model path unavailable" and fall back to rules.
package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Client requests a single completion from a language model.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request carries one completion request. System may be empty.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Options selects and configures a provider.
type Options struct {
	Provider string // "openai" (default) or "anthropic"
	APIKey   string
	Model    string
	BaseURL  string // optional endpoint override, used in tests
}

// New builds a Client for the configured provider.
func New(opts Options) (Client, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "openai":
		return NewOpenAI(opts.APIKey, opts.Model, opts.BaseURL), nil
	case "anthropic":
		return NewAnthropic(opts.APIKey, opts.Model, opts.BaseURL), nil
	default:
		return nil, eris.Errorf("llm: unsupported provider %q", opts.Provider)
	}
}
