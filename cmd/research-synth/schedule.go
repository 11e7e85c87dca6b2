// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/pipeline"
)

const defaultSchedule = "0 6 * * *"

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-analyze the papers directory on a cron schedule",
	Long: `Schedule runs analyze over --papers-dir every time the cron expression
fires, until interrupted. Each run gets its own run ID, output directory,
and history row. A run that is still going when the next one is due makes
the next one wait.`,
	RunE: runSchedule,
}

func init() {
	addPipelineFlags(scheduleCmd)
	scheduleCmd.Flags().String("cron", defaultSchedule, "cron expression (minute hour dom month dow) or descriptor such as @hourly")
	scheduleCmd.Flags().Bool("run-now", false, "run once immediately before waiting for the schedule")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := viper.BindPFlag("schedule", cmd.Flags().Lookup("cron")); err != nil {
		return err
	}
	spec := viper.GetString("schedule")

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	var mu sync.Mutex
	job := func() {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}

		inputs, err := pipeline.Discover(cfg.PapersDir)
		if err != nil {
			log.Error("discovering papers", zap.Error(err))
			return
		}
		if err := analyze(ctx, cfg, inputs, os.Stdout, log); err != nil {
			log.Error("scheduled run failed", zap.Error(err))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, job); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
		job()
	}

	c.Start()
	fmt.Fprintf(os.Stdout, "scheduled analysis of %s with %q; press Ctrl-C to stop\n", cfg.PapersDir, spec)

	<-ctx.Done()
	fmt.Fprintln(os.Stdout, "shutting down")
	<-c.Stop().Done()
	return nil
}
