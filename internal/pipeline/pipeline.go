// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a batch of papers through extraction,
// classification, summarization, and field parsing, then synthesizes one
// solution over every valid paper's research gap.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-synth/internal/classify"
	"github.com/pdiddy/research-synth/internal/fields"
	"github.com/pdiddy/research-synth/internal/llm"
	"github.com/pdiddy/research-synth/internal/logging"
	"github.com/pdiddy/research-synth/internal/pdftext"
	"github.com/pdiddy/research-synth/internal/summarize"
	"github.com/pdiddy/research-synth/pkg/types"
)

// ErrNoInput is returned when a run is started with no papers.
var ErrNoInput = errors.New("no input papers")

// Summary holds per-paper outcome counts for one run.
type Summary struct {
	Valid   int
	Skipped int
	Failed  int
}

// Total returns the number of papers submitted.
func (s Summary) Total() int {
	return s.Valid + s.Skipped + s.Failed
}

// HasFailures reports whether any paper failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Pipeline holds the stage components for analysis runs.
type Pipeline struct {
	cfg         types.PipelineConfig
	extractor   *pdftext.Extractor
	classifier  *classify.Classifier
	summarizer  *summarize.Summarizer
	synthesizer *summarize.Synthesizer
	log         *zap.Logger

	now   func() time.Time
	newID func() string
}

// New wires the stages from cfg around gen.
func New(cfg types.PipelineConfig, gen llm.Generator, log *zap.Logger) (*Pipeline, error) {
	log = logging.OrNop(log)
	classifier, err := classify.New(cfg.Classify, gen, log)
	if err != nil {
		return nil, fmt.Errorf("configuring classifier: %w", err)
	}
	return &Pipeline{
		cfg:         cfg,
		extractor:   pdftext.New(cfg.Extract, log),
		classifier:  classifier,
		summarizer:  summarize.NewSummarizer(gen, cfg.Summarize, log),
		synthesizer: summarize.NewSynthesizer(gen, cfg.Synthesize, log),
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
	}, nil
}

// progress serializes human-readable lines from concurrent workers.
type progress struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *progress) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

// Run analyzes inputs in submission order and returns the finished run.
// Per-paper failures are recorded on the paper and never stop the batch.
// When no paper is valid the synthesizer is not called and the returned
// run has a zero ValidCount. Only summaries carrying a GAP marker feed
// the synthesizer; valid papers without one are reported but add no gap. The error is non-nil only for empty input,
// cancellation, or a failed synthesis; the run is still returned in the
// last two cases.
func (p *Pipeline) Run(ctx context.Context, inputs []Input, w io.Writer) (*types.Run, Summary, error) {
	if len(inputs) == 0 {
		return nil, Summary{}, ErrNoInput
	}

	run := &types.Run{
		ID:        p.newID(),
		Title:     p.title(),
		StartedAt: p.now(),
	}
	out := &progress{w: w}
	log := p.log.With(zap.String("run_id", run.ID))

	batch := p.admit(run, inputs, out)
	corpus := make([]string, len(batch))

	var g errgroup.Group
	g.SetLimit(p.workers())
	for i, paper := range batch {
		g.Go(func() error {
			corpus[i] = p.analyze(ctx, paper, inputs[i].Fetch, out, log)
			return nil
		})
	}
	_ = g.Wait()

	var summary Summary
	var gaps []summarize.GapEntry
	for _, paper := range run.Papers {
		switch {
		case paper.Valid():
			summary.Valid++
			if _, ok := fields.Gap(paper.Summary); ok {
				gaps = append(gaps, summarize.GapEntry{Name: paper.Name, Gap: paper.Fields.Gap})
			}
		case paper.State == types.StateSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	run.Corpus = joinNonEmpty(corpus)
	run.ValidCount = summary.Valid

	if err := ctx.Err(); err != nil {
		run.FinishedAt = p.now()
		return run, summary, fmt.Errorf("run canceled: %w", err)
	}

	if summary.Valid == 0 {
		fmt.Fprintf(w, "no valid papers; skipping synthesis\n")
		log.Info("run finished without valid papers", zap.Int("submitted", summary.Total()))
		run.FinishedAt = p.now()
		return run, summary, nil
	}

	if len(gaps) == 0 {
		fmt.Fprintf(w, "no research gaps found; skipping synthesis\n")
		log.Info("run finished without research gaps", zap.Int("valid", summary.Valid))
	} else {
		run.Gaps = summarize.AggregateGaps(gaps)
		fmt.Fprintf(w, "synthesizing %d gaps\n", len(gaps))
		solution, err := p.synthesizer.Synthesize(ctx, run.Gaps)
		if err != nil {
			run.FinishedAt = p.now()
			return run, summary, fmt.Errorf("synthesizing solution: %w", err)
		}
		run.Solution = solution
	}
	run.FinishedAt = p.now()

	for _, paper := range run.Valid() {
		if err := paper.Advance(types.StateReported); err != nil {
			log.Warn("state transition", zap.Error(err))
		}
	}
	log.Info("run finished",
		zap.Int("valid", summary.Valid),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return run, summary, nil
}

// Screen runs only extraction and classification over inputs. Papers
// that pass stay in the Classified state.
func (p *Pipeline) Screen(ctx context.Context, inputs []Input, w io.Writer) ([]*types.Paper, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}
	out := &progress{w: w}
	papers := make([]*types.Paper, len(inputs))

	var g errgroup.Group
	g.SetLimit(p.workers())
	for i, in := range inputs {
		paper := types.NewPaper(in.Name, in.Path, in.Data)
		papers[i] = paper
		g.Go(func() error {
			if _, ok := p.extract(ctx, paper, in.Fetch, out); ok {
				p.classify(ctx, paper, out)
			}
			return nil
		})
	}
	_ = g.Wait()
	return papers, ctx.Err()
}

// admit creates a paper per input and skips everything past the batch cap.
// It returns the papers to analyze.
func (p *Pipeline) admit(run *types.Run, inputs []Input, out *progress) []*types.Paper {
	limit := p.cfg.BatchLimit()
	for i, in := range inputs {
		paper := types.NewPaper(in.Name, in.Path, in.Data)
		if i >= limit {
			paper.Skip(fmt.Sprintf("batch limit of %d papers reached", limit))
			out.printf("skipped %s: %s\n", paper.Name, paper.Error)
		}
		run.Papers = append(run.Papers, paper)
	}
	return run.Papers[:min(limit, len(run.Papers))]
}

// analyze moves one paper through every per-paper stage. It returns the
// extracted text for the word-cloud corpus, empty if extraction failed.
func (p *Pipeline) analyze(ctx context.Context, paper *types.Paper, fetch fetchFunc, out *progress, log *zap.Logger) string {
	if err := ctx.Err(); err != nil {
		paper.Fail(err)
		return ""
	}

	text, ok := p.extract(ctx, paper, fetch, out)
	if !ok {
		return ""
	}
	if !p.classify(ctx, paper, out) {
		return text
	}

	out.printf("summarizing %s\n", paper.Name)
	summary, err := p.summarizer.Summarize(ctx, paper.Name, paper.Text)
	if err != nil {
		paper.Fail(err)
		out.printf("failed  %s: %v\n", paper.Name, err)
		log.Warn("inference failed", zap.String("paper", paper.Name), zap.Error(err))
		return text
	}
	paper.Summary = summary
	if !p.advance(paper, types.StateSummarized, out) {
		return text
	}

	paper.Fields = fields.Parse(summary)
	if !p.advance(paper, types.StateFieldsParsed, out) {
		return text
	}

	method := string(paper.Fields.MethodType)
	if method == "" {
		method = "no method type"
	}
	out.printf("analyzed %s (%s, %d authors)\n", paper.Name, method, len(paper.Fields.Authors))
	return text
}

type fetchFunc func(ctx context.Context) ([]byte, error)

func (p *Pipeline) extract(ctx context.Context, paper *types.Paper, fetch fetchFunc, out *progress) (string, bool) {
	if fetch != nil {
		out.printf("downloading %s\n", paper.Name)
		data, err := fetch(ctx)
		if err != nil {
			paper.Text = pdftext.ErrorPrefix + err.Error()
			paper.Fail(err)
			out.printf("failed  %s: %v\n", paper.Name, err)
			return "", false
		}
		paper.Source = data
	}

	var res pdftext.Result
	if paper.Path != "" {
		res = p.extractor.ExtractFile(paper.Path)
	} else {
		res = p.extractor.ExtractBytes(paper.Name, paper.Source)
	}
	paper.Text = res.Text
	paper.PageCount = res.PageCount
	if res.Failed() {
		paper.Fail(res.Err)
		out.printf("failed  %s: %v\n", paper.Name, res.Err)
		return "", false
	}
	if !p.advance(paper, types.StateExtracted, out) {
		return "", false
	}
	return res.Text, true
}

// classify applies the gate and reports whether the paper may continue.
func (p *Pipeline) classify(ctx context.Context, paper *types.Paper, out *progress) bool {
	if !p.classifier.Enabled() {
		return true
	}
	v, err := p.classifier.Classify(ctx, paper.Name, paper.Text)
	if err != nil {
		paper.Fail(err)
		out.printf("failed  %s: %v\n", paper.Name, err)
		return false
	}
	paper.Verdict = &v
	if !p.advance(paper, types.StateClassified, out) {
		return false
	}
	if !v.IsPaper {
		paper.Skip("rejected: " + v.Reason)
		out.printf("rejected %s: %s\n", paper.Name, v.Reason)
		return false
	}
	return true
}

func (p *Pipeline) advance(paper *types.Paper, next types.PaperState, out *progress) bool {
	if err := paper.Advance(next); err != nil {
		paper.Fail(err)
		out.printf("failed  %s: %v\n", paper.Name, err)
		return false
	}
	return true
}

func (p *Pipeline) workers() int {
	return max(1, p.cfg.Workers)
}

func (p *Pipeline) title() string {
	if p.cfg.Title != "" {
		return p.cfg.Title
	}
	return "Research synthesis " + p.now().Format("2006-01-02 15:04")
}

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, s := range parts {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n")
}
