// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-synth/internal/pipeline"
	"github.com/pdiddy/research-synth/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [pdf...]",
	Short: "Check which PDFs look like research papers",
	Long: `Classify extracts text from each PDF, or every PDF in --papers-dir, and
runs only the classification gate, printing a verdict per file. No summary
is requested and nothing is recorded. The heuristic strategy is used unless
--classify selects another.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("papers-dir", "papers", "directory scanned for PDFs when no files are given")
	classifyCmd.Flags().String("classify", string(types.ClassifyHeuristic), "strategy: heuristic, llm, both")
	classifyCmd.Flags().Int("head-pages", 12, "leading pages sampled from each PDF")
	classifyCmd.Flags().Int("tail-pages", 5, "trailing pages sampled from each PDF")
	classifyCmd.Flags().Bool("validate", false, "validate PDF structure before extracting text")
	addModelFlags(classifyCmd)

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("classify") && cfg.Classify.Strategy == types.ClassifyNone {
		cfg.Classify.Strategy = types.ClassifyHeuristic
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
	gen, err := newGenerator(cfg, log)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, gen, log)
	if err != nil {
		return err
	}

	papers, err := p.Screen(cmd.Context(), inputs, os.Stderr)
	if err != nil {
		return err
	}

	var rejected, failed int
	for _, paper := range papers {
		switch {
		case paper.State == types.StateFailed:
			failed++
			fmt.Fprintf(os.Stdout, "%-40s  error     %s\n", paper.Name, paper.Error)
		case paper.Verdict != nil && !paper.Verdict.IsPaper:
			rejected++
			fmt.Fprintf(os.Stdout, "%-40s  rejected  %s (%s)\n", paper.Name, paper.Verdict.Reason, paper.Verdict.Strategy)
		case paper.Verdict != nil:
			fmt.Fprintf(os.Stdout, "%-40s  paper     %s (%s)\n", paper.Name, paper.Verdict.Reason, paper.Verdict.Strategy)
		default:
			fmt.Fprintf(os.Stdout, "%-40s  paper     not classified\n", paper.Name)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d papers, %d rejected, %d unreadable\n", len(papers)-rejected-failed, rejected, failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be read", failed)
	}
	return nil
}
