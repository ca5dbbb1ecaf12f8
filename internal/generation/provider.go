package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hookline/hookline/internal/config"
)

// Params are the sampling knobs passed to a provider.
type Params struct {
	MaxOutputLength   int
	Temperature       float64
	RepetitionPenalty float64
}

// Provider produces raw text for a prompt.
type Provider interface {
	// Name labels the provider in logs and metrics.
	Name() string
	Complete(ctx context.Context, prompt string, p Params) (string, error)
}

// ErrEmptyOutput is returned by providers that answered without any text.
var ErrEmptyOutput = errors.New("provider returned no text")

// NewProvider builds the provider selected by cfg. It returns nil, nil when
// the provider is "none" or its API key is missing; the service then runs on
// fallback content only.
func NewProvider(ctx context.Context, cfg config.GenerationConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderHuggingFace, config.ProviderGemini:
		if cfg.APIKey == "" {
			slog.Warn("generation API key not configured, using fallback content only", "provider", cfg.Provider)
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("unsupported generation provider: %q", cfg.Provider)
	}

	if cfg.Provider == config.ProviderGemini {
		gc, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, "", cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return gc, nil
	}
	return NewHuggingFaceClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout), nil
}
