// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/acquire"
	"github.com/pdiddy/research-synth/internal/history"
	"github.com/pdiddy/research-synth/internal/pipeline"
	"github.com/pdiddy/research-synth/internal/report"
	"github.com/pdiddy/research-synth/pkg/types"
)

const downloadTimeout = 60 * time.Second

var analyzeCmd = &cobra.Command{
	Use:   "analyze [pdf|arxiv-id|doi|url...]",
	Short: "Summarize a batch of papers and synthesize a unified solution",
	Long: `Analyze runs every given PDF, or every PDF in --papers-dir when none are
given, through extraction, optional classification, summarization, and field
parsing, then asks the model for one project that addresses every research
gap. Arguments that are not local files may be arXiv IDs, DOIs, or PDF
URLs; those papers are downloaded. At most ten papers are analyzed per run;
extra papers are skipped.

Artifacts are written to <output-dir>/<run-id>/ and the run is appended to
the history log.`,
	RunE: runAnalyze,
}

func init() {
	addPipelineFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	inputs, err := collectInputs(cfg, args)
	if err != nil {
		return err
	}
	return analyze(cmd.Context(), cfg, inputs, os.Stdout, log)
}

// collectInputs uses args when given, otherwise the papers directory. An
// argument that is not an existing file but parses as an arXiv ID, DOI,
// or URL is downloaded during extraction.
func collectInputs(cfg types.PipelineConfig, args []string) ([]pipeline.Input, error) {
	if len(args) == 0 {
		return pipeline.Discover(cfg.PapersDir)
	}

	fetcher := &acquire.Fetcher{
		Client:     &http.Client{Timeout: downloadTimeout},
		MaxRetries: cfg.LLM.MaxRetries,
	}
	inputs := make([]pipeline.Input, len(args))
	for i, a := range args {
		if _, err := os.Stat(a); err != nil {
			if in, ok := fetcher.Input(a); ok {
				inputs[i] = in
				continue
			}
		}
		inputs[i] = pipeline.FileInput(a)
	}
	return inputs, nil
}

// analyze runs one batch, writes its report, and records it in history.
// A history failure is reported after the artifacts are written.
func analyze(ctx context.Context, cfg types.PipelineConfig, inputs []pipeline.Input, w io.Writer, log *zap.Logger) error {
	if len(inputs) == 0 {
		fmt.Fprintf(w, "no PDFs found in %s\n", cfg.PapersDir)
		return pipeline.ErrNoInput
	}

	gen, err := newGenerator(cfg, log)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, gen, log)
	if err != nil {
		return err
	}

	run, summary, runErr := p.Run(ctx, inputs, w)
	if run == nil {
		return runErr
	}
	fmt.Fprintf(w, "\n%d valid, %d skipped, %d failed\n", summary.Valid, summary.Skipped, summary.Failed)

	if run.ValidCount == 0 {
		if runErr != nil {
			return runErr
		}
		fmt.Fprintln(w, "nothing to report")
		return nil
	}

	dir := report.RunDir(cfg.OutputDir, run.ID)
	written, err := report.Write(dir, run)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Fprintf(w, "report written to %s\n", dir)
	for _, path := range written {
		fmt.Fprintf(w, "  %s\n", filepath.Base(path))
	}
	if runErr != nil {
		return runErr
	}

	if err := recordRun(ctx, cfg.History, run.Record()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: run %s was not recorded: %v\n", run.ID, err)
		return err
	}
	return nil
}

func recordRun(ctx context.Context, cfg types.HistoryConfig, rec types.RunRecord) error {
	hl, err := history.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	appendErr := hl.Append(ctx, rec)
	return errors.Join(appendErr, hl.Close())
}
