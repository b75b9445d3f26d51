// Package oracle provides the external classifiers the classification
// pipeline can consult for records the lexical rules leave on the
// Entertainment fallback.
package oracle

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/runnerr0/watchmirror/internal/classify"
)

// Provider names accepted by New.
const (
	ProviderNone   = "none"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

var (
	// ErrMissingCredential is returned when a remote provider has no API key.
	ErrMissingCredential = errors.New("oracle: missing API credential")
	// ErrUnknownProvider is returned by New for unsupported provider names.
	ErrUnknownProvider = errors.New("oracle: unknown provider")
)

// Options configures a concrete oracle.
type Options struct {
	OllamaURL   string
	OllamaModel string

	// GeminiKeyEnv names the environment variable holding the API key.
	GeminiKeyEnv string
	GeminiModel  string
	GeminiURL    string

	HTTPClient *http.Client
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: 120 * time.Second}
}

// New returns the oracle for provider, or nil for ProviderNone.
func New(provider string, opts Options) (classify.Oracle, error) {
	switch provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOllama:
		return NewOllama(opts.OllamaURL, opts.OllamaModel, opts.client()), nil
	case ProviderGemini:
		key := os.Getenv(opts.GeminiKeyEnv)
		g, err := NewGemini(key, opts.GeminiModel, opts.client())
		if err != nil {
			return nil, err
		}
		if opts.GeminiURL != "" {
			g.baseURL = opts.GeminiURL
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}
