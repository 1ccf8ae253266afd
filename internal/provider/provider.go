// Package provider abstracts the upstream LLM that anonymized prompts are
// forwarded to. Only anonymized text ever crosses this boundary.
package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cloakward-ai/cloakward/internal/config"
)

// Provider is the interface for all upstream LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

// New builds a provider from configuration. The API key is read from the
// environment variable named in the config, never from the config file.
func New(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "openai":
		apiKey := os.Getenv(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("provider api key env %s not set", cfg.APIKeyEnv)
		}
		return NewOpenAI(cfg.BaseURL, apiKey, cfg.Model, 60*time.Second, 0), nil
	case "mock", "":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
