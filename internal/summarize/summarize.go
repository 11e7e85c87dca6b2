// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize builds the model prompts: one structured summary per
// paper and one synthesis over every research gap in a run.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/llm"
	"github.com/pdiddy/research-synth/internal/logging"
	"github.com/pdiddy/research-synth/pkg/types"
)

const defaultMaxChars = 15000

// ErrNoGaps is returned when synthesis is requested with nothing to synthesize.
var ErrNoGaps = errors.New("no research gaps to synthesize")

// Truncate returns the first maxChars characters of text.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars])
}

// Summarizer requests the per-paper summary.
type Summarizer struct {
	gen      llm.Generator
	maxChars int
	tags     bool
	log      *zap.Logger
}

// NewSummarizer returns a Summarizer. A non-positive MaxChars uses 15000.
func NewSummarizer(gen llm.Generator, cfg types.SummarizeConfig, log *zap.Logger) *Summarizer {
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Summarizer{gen: gen, maxChars: maxChars, tags: cfg.ClassificationTags, log: logging.OrNop(log)}
}

// Prompt renders the summary prompt for one paper.
func (s *Summarizer) Prompt(name, text string) (string, error) {
	return render(summaryPromptTmpl, summaryData{
		Name:    name,
		Headers: SectionHeaders,
		Tags:    s.tags,
		Methods: methodChoices(),
		Text:    Truncate(text, s.maxChars),
	})
}

// Summarize returns the model's raw summary of the paper text.
func (s *Summarizer) Summarize(ctx context.Context, name, text string) (string, error) {
	prompt, err := s.Prompt(name, text)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	s.log.Debug("summarizing", zap.String("paper", name), zap.Int("prompt_chars", len(prompt)))
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarizing %s: %w", name, err)
	}
	return out, nil
}

// GapEntry is one paper's gap text, labeled by filename.
type GapEntry struct {
	Name string
	Gap  string
}

// AggregateGaps joins entries in order as "\nGap from <name>: <gap>".
func AggregateGaps(entries []GapEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString("\nGap from ")
		sb.WriteString(e.Name)
		sb.WriteString(": ")
		sb.WriteString(e.Gap)
	}
	return sb.String()
}

// Synthesizer requests the unified solution across all gaps.
type Synthesizer struct {
	gen        llm.Generator
	structured bool
	log        *zap.Logger
}

// NewSynthesizer returns a Synthesizer.
func NewSynthesizer(gen llm.Generator, cfg types.SynthesizeConfig, log *zap.Logger) *Synthesizer {
	return &Synthesizer{gen: gen, structured: cfg.Structured, log: logging.OrNop(log)}
}

// Prompt renders the synthesis prompt for an aggregate gap text.
func (s *Synthesizer) Prompt(gaps string) (string, error) {
	return render(synthesisPromptTmpl, synthesisData{Gaps: gaps, Structured: s.structured})
}

// Synthesize makes exactly one model call over the aggregate gap text.
func (s *Synthesizer) Synthesize(ctx context.Context, gaps string) (string, error) {
	if strings.TrimSpace(gaps) == "" {
		return "", ErrNoGaps
	}
	prompt, err := s.Prompt(gaps)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	s.log.Debug("synthesizing", zap.Int("prompt_chars", len(prompt)))
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("synthesizing: %w", err)
	}
	return out, nil
}
