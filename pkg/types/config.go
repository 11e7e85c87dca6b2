// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MaxBatchSize is the largest number of papers one run accepts.
const MaxBatchSize = 10

// ExtractConfig holds settings for the text extraction stage.
type ExtractConfig struct {
	// HeadPages is the number of leading pages sampled from each PDF (default 12).
	HeadPages int `json:"head_pages" yaml:"head_pages" mapstructure:"head_pages"`

	// TailPages is the number of trailing pages sampled from each PDF (default 5).
	TailPages int `json:"tail_pages" yaml:"tail_pages" mapstructure:"tail_pages"`

	// Validate runs strict structural validation on each PDF before reading text.
	Validate bool `json:"validate" yaml:"validate" mapstructure:"validate"`
}

// ClassifyStrategy selects how papers are told apart from other documents.
type ClassifyStrategy string

const (
	ClassifyNone      ClassifyStrategy = "none"
	ClassifyHeuristic ClassifyStrategy = "heuristic"
	ClassifyLLM       ClassifyStrategy = "llm"
	ClassifyBoth      ClassifyStrategy = "both"
)

// ClassifyConfig holds settings for the optional classification gate.
type ClassifyConfig struct {
	// Strategy is one of none, heuristic, llm, or both (default none).
	Strategy ClassifyStrategy `json:"strategy" yaml:"strategy" mapstructure:"strategy"`

	// MinResearchHits is the minimum research keyword count a paper needs (default 3).
	MinResearchHits int `json:"min_research_hits" yaml:"min_research_hits" mapstructure:"min_research_hits"`

	// BorderlineMargin is the keyword-count distance inside which the
	// "both" strategy asks the model for confirmation (default 2).
	BorderlineMargin int `json:"borderline_margin" yaml:"borderline_margin" mapstructure:"borderline_margin"`
}

// SummarizeConfig holds settings for the per-paper summary prompt.
type SummarizeConfig struct {
	// MaxChars is the number of characters of paper text sent to the model (default 15000).
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`

	// ClassificationTags asks the model for METHOD_TYPE and KEY_AUTHORS lines.
	ClassificationTags bool `json:"classification_tags" yaml:"classification_tags" mapstructure:"classification_tags"`
}

// SynthesizeConfig holds settings for the cross-paper synthesis prompt.
type SynthesizeConfig struct {
	// Structured requests a title, combined methodology, and expected impact.
	Structured bool `json:"structured" yaml:"structured" mapstructure:"structured"`
}

// LLMProvider identifies the language model service.
type LLMProvider string

const (
	ProviderOllama LLMProvider = "ollama"
	ProviderClaude LLMProvider = "claude"
	ProviderOpenAI LLMProvider = "openai"
)

// LLMConfig holds shared settings for stages that call a language model.
type LLMConfig struct {
	// Provider selects the backend: ollama, claude, or openai (default ollama).
	Provider LLMProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "llama3", "claude-sonnet-4-5-20250929").
	// Empty uses the provider's default model.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the provider endpoint. Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey is the authentication key for hosted providers.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// MaxRetries is the number of retries on rate-limit responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single model call. Zero waits indefinitely.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// HistoryBackend identifies where run records are appended.
type HistoryBackend string

const (
	HistoryNone   HistoryBackend = "none"
	HistorySQLite HistoryBackend = "sqlite"
	HistorySheets HistoryBackend = "sheets"
)

// HistoryConfig holds settings for the run history log.
type HistoryConfig struct {
	// Backend is one of none, sqlite, or sheets (default sqlite).
	Backend HistoryBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the SQLite database file (default output/history.db).
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// SpreadsheetID is the target Google spreadsheet for the sheets backend.
	SpreadsheetID string `json:"spreadsheet_id,omitempty" yaml:"spreadsheet_id,omitempty" mapstructure:"spreadsheet_id"`

	// SheetRange is the A1 range rows are appended to (default "Runs!A:E").
	SheetRange string `json:"sheet_range,omitempty" yaml:"sheet_range,omitempty" mapstructure:"sheet_range"`

	// CredentialsFile is a service-account JSON file for the sheets backend.
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty" mapstructure:"credentials_file"`

	// Endpoint overrides the Sheets API endpoint.
	Endpoint string `json:"-" yaml:"-" mapstructure:"endpoint"`
}

// PipelineConfig groups all stage configurations for one analysis run.
type PipelineConfig struct {
	// PapersDir is the directory scanned for PDFs when no files are given.
	PapersDir string `json:"papers_dir" yaml:"papers_dir" mapstructure:"papers_dir"`

	// OutputDir is the base directory for run artifacts.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// MaxBatch caps the number of papers per run. Values above MaxBatchSize are clamped.
	MaxBatch int `json:"max_batch" yaml:"max_batch" mapstructure:"max_batch"`

	// Workers is the number of papers processed concurrently (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// Title labels the run in the history log. Empty derives one from the date.
	Title string `json:"title" yaml:"title" mapstructure:"title"`

	Extract    ExtractConfig    `json:"extract" yaml:"extract" mapstructure:"extract"`
	Classify   ClassifyConfig   `json:"classify" yaml:"classify" mapstructure:"classify"`
	Summarize  SummarizeConfig  `json:"summarize" yaml:"summarize" mapstructure:"summarize"`
	Synthesize SynthesizeConfig `json:"synthesize" yaml:"synthesize" mapstructure:"synthesize"`
	LLM        LLMConfig        `json:"llm" yaml:"llm" mapstructure:"llm"`
	History    HistoryConfig    `json:"history" yaml:"history" mapstructure:"history"`

	// LogLevel is the diagnostic log level: debug, info, warn, or error.
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// DefaultPipelineConfig returns the stock configuration: 12 head pages,
// 5 tail pages, 15000 characters, a local Ollama with its default model,
// and no classification gate.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		PapersDir: "papers",
		OutputDir: "output",
		MaxBatch:  MaxBatchSize,
		Workers:   1,
		Extract: ExtractConfig{
			HeadPages: 12,
			TailPages: 5,
		},
		Classify: ClassifyConfig{
			Strategy:         ClassifyNone,
			MinResearchHits:  3,
			BorderlineMargin: 2,
		},
		Summarize: SummarizeConfig{
			MaxChars:           15000,
			ClassificationTags: true,
		},
		LLM: LLMConfig{
			Provider:   ProviderOllama,
			MaxRetries: 3,
		},
		History: HistoryConfig{
			Backend:    HistorySQLite,
			Path:       "output/history.db",
			SheetRange: "Runs!A:E",
		},
		LogLevel: "info",
	}
}

// BatchLimit returns the effective batch cap, never above MaxBatchSize.
func (c PipelineConfig) BatchLimit() int {
	if c.MaxBatch <= 0 || c.MaxBatch > MaxBatchSize {
		return MaxBatchSize
	}
	return c.MaxBatch
}
