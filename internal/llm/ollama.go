// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/httputil"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3"
)

// Ollama calls a local Ollama server's generate endpoint without streaming.
type Ollama struct {
	BaseURL    string
	Model      string
	MaxRetries int
	Client     *http.Client
	Log        *zap.Logger
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate posts the prompt to /api/generate and returns the response field.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	base := o.BaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	model := o.Model
	if model == "" {
		model = defaultOllamaModel
	}

	body, err := json.Marshal(ollamaRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, httputil.Policy{MaxRetries: o.MaxRetries, Log: o.Log})
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slurp, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding Ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("Ollama: %s", out.Error)
	}
	return out.Response, nil
}
