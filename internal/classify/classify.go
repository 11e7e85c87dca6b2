// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether an extracted document is a research
// paper or something else, most often a résumé, before any summary is
// requested for it.
package classify

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/llm"
	"github.com/pdiddy/research-synth/internal/logging"
	"github.com/pdiddy/research-synth/pkg/types"
)

// researchKeywords signal academic writing.
var researchKeywords = []string{
	"abstract",
	"introduction",
	"methodology",
	"literature review",
	"hypothesis",
	"results",
	"discussion",
	"conclusion",
	"references",
	"et al",
	"doi",
	"findings",
	"sample",
	"participants",
	"analysis",
}

// nonResearchKeywords signal résumés, cover letters, and similar documents.
var nonResearchKeywords = []string{
	"curriculum vitae",
	"resume",
	"résumé",
	"work experience",
	"professional experience",
	"employment history",
	"career objective",
	"skills",
	"hobbies",
	"references available upon request",
	"linkedin",
	"date of birth",
	"nationality",
	"marital status",
}

// promptChars is how much text the confirmation prompt includes.
const promptChars = 4000

var confirmPromptTmpl = template.Must(template.New("confirm").Parse(`Is the following document a research paper (an academic article, thesis, or report with research content)? It is not a research paper if it is a résumé, CV, cover letter, invoice, or form.

Answer with exactly one word: YES or NO.

DOCUMENT:
{{.Text}}
`))

// Counts holds keyword occurrence totals for one document.
type Counts struct {
	Research    int
	NonResearch int
}

// CountKeywords counts occurrences of every keyword in the lower-cased text.
func CountKeywords(text string) Counts {
	lower := strings.ToLower(text)
	var c Counts
	for _, k := range researchKeywords {
		c.Research += strings.Count(lower, k)
	}
	for _, k := range nonResearchKeywords {
		c.NonResearch += strings.Count(lower, k)
	}
	return c
}

// Classifier applies the configured strategy.
type Classifier struct {
	strategy types.ClassifyStrategy
	minHits  int
	margin   int
	gen      llm.Generator
	log      *zap.Logger
}

// New returns a Classifier. gen may be nil for the none and heuristic strategies.
func New(cfg types.ClassifyConfig, gen llm.Generator, log *zap.Logger) (*Classifier, error) {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = types.ClassifyNone
	}
	switch strategy {
	case types.ClassifyNone, types.ClassifyHeuristic:
	case types.ClassifyLLM, types.ClassifyBoth:
		if gen == nil {
			return nil, fmt.Errorf("classify strategy %q needs a language model", strategy)
		}
	default:
		return nil, fmt.Errorf("unknown classify strategy %q: use none, heuristic, llm, or both", strategy)
	}
	minHits := cfg.MinResearchHits
	if minHits <= 0 {
		minHits = 3
	}
	margin := cfg.BorderlineMargin
	if margin < 0 {
		margin = 0
	}
	return &Classifier{strategy: strategy, minHits: minHits, margin: margin, gen: gen, log: logging.OrNop(log)}, nil
}

// Enabled reports whether classification runs at all.
func (c *Classifier) Enabled() bool {
	return c.strategy != types.ClassifyNone
}

// Classify returns the verdict for text. An error means the model could
// not be reached and the paper should be marked failed, not rejected.
func (c *Classifier) Classify(ctx context.Context, name, text string) (types.Verdict, error) {
	switch c.strategy {
	case types.ClassifyHeuristic:
		return c.heuristic(CountKeywords(text)), nil
	case types.ClassifyLLM:
		return c.confirm(ctx, name, text)
	case types.ClassifyBoth:
		counts := CountKeywords(text)
		v := c.heuristic(counts)
		if !v.IsPaper {
			return v, nil
		}
		if !c.borderline(counts) {
			return v, nil
		}
		c.log.Debug("borderline document, asking model",
			zap.String("paper", name),
			zap.Int("research", counts.Research),
			zap.Int("non_research", counts.NonResearch),
		)
		return c.confirm(ctx, name, text)
	default:
		return types.Verdict{IsPaper: true, Reason: "classification disabled", Strategy: string(types.ClassifyNone)}, nil
	}
}

func (c *Classifier) heuristic(counts Counts) types.Verdict {
	v := types.Verdict{Strategy: string(types.ClassifyHeuristic)}
	switch {
	case counts.NonResearch > counts.Research:
		v.Reason = fmt.Sprintf("looks like a résumé or non-research document (%d non-research vs %d research keywords)",
			counts.NonResearch, counts.Research)
	case counts.Research < c.minHits:
		v.Reason = fmt.Sprintf("too few research keywords (%d, need %d)", counts.Research, c.minHits)
	default:
		v.IsPaper = true
		v.Reason = fmt.Sprintf("%d research keywords", counts.Research)
	}
	return v
}

// borderline reports whether a heuristic pass was close enough to a
// rejection threshold to be worth a model call.
func (c *Classifier) borderline(counts Counts) bool {
	return counts.Research-c.minHits < c.margin || counts.Research-counts.NonResearch <= c.margin
}

func (c *Classifier) confirm(ctx context.Context, name, text string) (types.Verdict, error) {
	prompt, err := renderConfirm(text)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("rendering prompt: %w", err)
	}
	answer, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("classifying %s: %w", name, err)
	}
	v := types.Verdict{Strategy: string(types.ClassifyLLM)}
	if Affirmative(answer) {
		v.IsPaper = true
		v.Reason = "confirmed by model"
	} else {
		v.Reason = "model did not confirm a research paper"
	}
	return v, nil
}

// Affirmative reports whether a model answer starts with YES, ignoring
// case, surrounding whitespace, and leading punctuation.
func Affirmative(answer string) bool {
	a := strings.TrimLeft(strings.TrimSpace(answer), "*\"'`[( ")
	return strings.HasPrefix(strings.ToUpper(a), "YES")
}

func renderConfirm(text string) (string, error) {
	if r := []rune(text); len(r) > promptChars {
		text = string(r[:promptChars])
	}
	var sb strings.Builder
	if err := confirmPromptTmpl.Execute(&sb, struct{ Text string }{Text: text}); err != nil {
		return "", err
	}
	return sb.String(), nil
}
