// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-synth/internal/pipeline"
	"github.com/pdiddy/research-synth/internal/secrets"
	"github.com/pdiddy/research-synth/pkg/types"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	loadedSecrets = secrets.Set{}
	for _, env := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS"} {
		t.Setenv(env, "")
	}

	cmd := &cobra.Command{Use: "test"}
	addPipelineFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cmd := newTestCommand(t)

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPipelineConfig(), cfg)
}

func TestLoadConfigFlags(t *testing.T) {
	cmd := newTestCommand(t,
		"--papers-dir", "in", "--workers", "4", "--classify", "both",
		"--no-tags", "--structured", "--timeout", "90s", "--history", "none",
	)

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "in", cfg.PapersDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, types.ClassifyBoth, cfg.Classify.Strategy)
	assert.False(t, cfg.Summarize.ClassificationTags)
	assert.True(t, cfg.Synthesize.Structured)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, types.HistoryNone, cfg.History.Backend)
	assert.Equal(t, 12, cfg.Extract.HeadPages, "unset flags keep defaults")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research-synth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 2
extract:
  tail_pages: 3
llm:
  provider: claude
  model: claude-sonnet-4-5-20250929
`), 0o644))

	cmd := newTestCommand(t, "--workers", "3")
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers, "flags override the file")
	assert.Equal(t, 3, cfg.Extract.TailPages)
	assert.Equal(t, 12, cfg.Extract.HeadPages)
	assert.Equal(t, types.ProviderClaude, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoadConfigHostedProviderModel(t *testing.T) {
	for _, provider := range []types.LLMProvider{types.ProviderClaude, types.ProviderOpenAI} {
		t.Run(string(provider), func(t *testing.T) {
			cmd := newTestCommand(t, "--provider", string(provider))
			t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
			t.Setenv("OPENAI_API_KEY", "sk-oai")

			cfg, err := loadConfig(cmd)
			require.NoError(t, err)
			assert.Equal(t, provider, cfg.LLM.Provider)
			assert.Empty(t, cfg.LLM.Model, "the backend picks its own default model")
			assert.NotEmpty(t, cfg.LLM.APIKey)
		})
	}

	cmd := newTestCommand(t, "--provider", "claude", "--model", "claude-opus")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "claude-opus", cfg.LLM.Model)
}

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))

	cfg := types.DefaultPipelineConfig()
	cfg.PapersDir = dir

	inputs, err := collectInputs(cfg, nil)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "a.pdf", inputs[0].Name)

	inputs, err = collectInputs(cfg, []string{"/tmp/x/z.pdf", "arXiv:2301.07041"})
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, pipeline.Input{Name: "z.pdf", Path: "/tmp/x/z.pdf"}, inputs[0], "missing local files stay file inputs")
	assert.Equal(t, "arxiv-2301.07041.pdf", inputs[1].Name)
	assert.NotNil(t, inputs[1].Fetch)
}

func TestAnalyzeNoInput(t *testing.T) {
	err := analyze(context.Background(), types.DefaultPipelineConfig(), nil, io.Discard, nil)
	assert.True(t, errors.Is(err, pipeline.ErrNoInput))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a long ...", truncate("a long title here", 10))
	assert.Equal(t, "first", firstLine("  first\nsecond"))
}
