// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/pdiddy/research-synth/pkg/types"
)

const defaultOpenAIModel = "gpt-5-mini"

// OpenAI calls the OpenAI Responses API through the official SDK.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds an OpenAI backend. The SDK's own retry loop is set to
// cfg.MaxRetries so throttling is handled the same way as the HTTP backends.
func NewOpenAI(cfg types.LLMConfig, httpClient *http.Client) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

// Generate sends the prompt as plain input text and returns the aggregated output text.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(o.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}
	text := resp.OutputText()
	if text == "" {
		return "", errors.New("no text content in OpenAI response")
	}
	return text, nil
}
