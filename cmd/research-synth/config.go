// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/llm"
	"github.com/pdiddy/research-synth/internal/logging"
	"github.com/pdiddy/research-synth/internal/secrets"
	"github.com/pdiddy/research-synth/pkg/types"
)

// flagKeys maps command-line flags to their configuration keys. Flags a
// command does not define are ignored.
var flagKeys = map[string]string{
	"papers-dir":  "papers_dir",
	"output-dir":  "output_dir",
	"max-batch":   "max_batch",
	"workers":     "workers",
	"title":       "title",
	"head-pages":  "extract.head_pages",
	"tail-pages":  "extract.tail_pages",
	"validate":    "extract.validate",
	"classify":    "classify.strategy",
	"max-chars":   "summarize.max_chars",
	"structured":  "synthesize.structured",
	"provider":    "llm.provider",
	"model":       "llm.model",
	"base-url":    "llm.base_url",
	"timeout":     "llm.timeout",
	"history":     "history.backend",
	"history-db":  "history.path",
	"spreadsheet": "history.spreadsheet_id",
	"log-level":   "log_level",
}

// setDefaults registers every configuration key so environment variables
// reach keys absent from the config file.
func setDefaults(v *viper.Viper, d types.PipelineConfig) {
	v.SetDefault("papers_dir", d.PapersDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("max_batch", d.MaxBatch)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("title", d.Title)
	v.SetDefault("extract.head_pages", d.Extract.HeadPages)
	v.SetDefault("extract.tail_pages", d.Extract.TailPages)
	v.SetDefault("extract.validate", d.Extract.Validate)
	v.SetDefault("classify.strategy", string(d.Classify.Strategy))
	v.SetDefault("classify.min_research_hits", d.Classify.MinResearchHits)
	v.SetDefault("classify.borderline_margin", d.Classify.BorderlineMargin)
	v.SetDefault("summarize.max_chars", d.Summarize.MaxChars)
	v.SetDefault("summarize.classification_tags", d.Summarize.ClassificationTags)
	v.SetDefault("synthesize.structured", d.Synthesize.Structured)
	v.SetDefault("llm.provider", string(d.LLM.Provider))
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("history.backend", string(d.History.Backend))
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.spreadsheet_id", d.History.SpreadsheetID)
	v.SetDefault("history.sheet_range", d.History.SheetRange)
	v.SetDefault("history.credentials_file", d.History.CredentialsFile)
	v.SetDefault("history.endpoint", "")
	v.SetDefault("log_level", d.LogLevel)
}

// loadConfig merges defaults, the config file, environment variables, and
// the flags cmd defines, in increasing precedence.
func loadConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	v := viper.GetViper()
	setDefaults(v, types.DefaultPipelineConfig())

	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return types.PipelineConfig{}, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}

	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.PipelineConfig{}, fmt.Errorf("parsing configuration: %w", err)
	}
	if noTags, _ := cmd.Flags().GetBool("no-tags"); noTags {
		cfg.Summarize.ClassificationTags = false
	}

	switch cfg.LLM.Provider {
	case types.ProviderClaude:
		cfg.LLM.APIKey = loadedSecrets.Lookup(secrets.AnthropicAPIKey, cfg.LLM.APIKey)
	case types.ProviderOpenAI:
		cfg.LLM.APIKey = loadedSecrets.Lookup(secrets.OpenAIAPIKey, cfg.LLM.APIKey)
	}
	cfg.History.CredentialsFile = loadedSecrets.Lookup(secrets.GoogleCredentials, cfg.History.CredentialsFile)
	return cfg, nil
}

// addPipelineFlags registers the flags shared by analyze and schedule.
func addPipelineFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("papers-dir", "papers", "directory scanned for PDFs when no files are given")
	f.String("output-dir", "output", "base directory for run artifacts")
	f.Int("max-batch", types.MaxBatchSize, "maximum papers per run (at most 10)")
	f.Int("workers", 1, "papers analyzed concurrently")
	f.String("title", "", "run title for the history log")
	f.Int("head-pages", 12, "leading pages sampled from each PDF")
	f.Int("tail-pages", 5, "trailing pages sampled from each PDF")
	f.Bool("validate", false, "validate PDF structure before extracting text")
	f.String("classify", "none", "classification gate: none, heuristic, llm, both")
	f.Int("max-chars", 15000, "characters of paper text sent to the model")
	f.Bool("no-tags", false, "do not ask the model for METHOD_TYPE and KEY_AUTHORS lines")
	f.Bool("structured", false, "ask for a titled, structured unified solution")
	addModelFlags(cmd)
	f.String("history", "sqlite", "history backend: sqlite, sheets, none")
	f.String("history-db", "output/history.db", "SQLite history database")
	f.String("spreadsheet", "", "Google spreadsheet ID for the sheets history backend")
}

func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("provider", "ollama", "language model provider: ollama, claude, openai")
	f.String("model", "", "model identifier (empty uses the provider default)")
	f.String("base-url", "", "override the provider endpoint")
	f.Duration("timeout", 0, "per-call model timeout (0 waits indefinitely)")
}

func newLogger(cfg types.PipelineConfig) (*zap.Logger, error) {
	log, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return log, nil
}

func newGenerator(cfg types.PipelineConfig, log *zap.Logger) (llm.Generator, error) {
	return llm.New(cfg.LLM, &http.Client{}, log)
}
