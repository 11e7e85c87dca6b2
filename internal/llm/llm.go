// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the language model boundary. Every stage that needs a
// model talks to a Generator: one prompt in, the response text out.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/logging"
	"github.com/pdiddy/research-synth/pkg/types"
)

// Generator sends a prompt to a model and returns the raw text response.
// The model identifier is part of the backend's configuration.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the backend named by cfg.Provider. A nil client uses
// http.DefaultClient. A positive cfg.Timeout bounds each call.
func New(cfg types.LLMConfig, client *http.Client, log *zap.Logger) (Generator, error) {
	if client == nil {
		client = http.DefaultClient
	}
	log = logging.OrNop(log)

	var g Generator
	switch cfg.Provider {
	case types.ProviderOllama, "":
		g = &Ollama{BaseURL: cfg.BaseURL, Model: cfg.Model, MaxRetries: cfg.MaxRetries, Client: client, Log: log}
	case types.ProviderClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude provider needs an API key (set llm.api_key or ANTHROPIC_API_KEY)")
		}
		g = &Claude{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Model: cfg.Model, MaxRetries: cfg.MaxRetries, Client: client, Log: log}
	case types.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider needs an API key (set llm.api_key or OPENAI_API_KEY)")
		}
		g = NewOpenAI(cfg, client)
	default:
		return nil, fmt.Errorf("unknown llm provider %q: use ollama, claude, or openai", cfg.Provider)
	}

	if cfg.Timeout > 0 {
		g = WithTimeout(g, cfg.Timeout)
	}
	return g, nil
}

// WithTimeout bounds every Generate call on g by d.
func WithTimeout(g Generator, d time.Duration) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return g.Generate(ctx, prompt)
	})
}
