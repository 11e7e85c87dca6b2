// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/httputil"
)

const (
	defaultClaudeURL   = "https://api.anthropic.com"
	defaultClaudeModel = "claude-sonnet-4-5-20250929"
	claudeMaxTokens    = 4096
)

// Claude calls the Anthropic Messages API.
type Claude struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
	Log        *zap.Logger
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate sends the prompt as a single user message and joins the text blocks of the reply.
func (c *Claude) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.Model
	if model == "" {
		model = defaultClaudeModel
	}
	base := c.BaseURL
	if base == "" {
		base = defaultClaudeURL
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     model,
		MaxTokens: claudeMaxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, httputil.Policy{MaxRetries: c.MaxRetries, Log: c.Log})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	var sb strings.Builder
	found := false
	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		found = true
		sb.WriteString(block.Text)
	}
	if !found {
		return "", errors.New("no text content in Claude API response")
	}
	return sb.String(), nil
}
