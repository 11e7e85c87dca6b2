// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-synth CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-synth/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the research-synth CLI.
var rootCmd = &cobra.Command{
	Use:   "research-synth",
	Short: "Summarize research papers and synthesize one project across their gaps",
	Long: `research-synth reads a batch of up to ten research-paper PDFs, asks a
language model for a structured summary of each, collects the methodology
label, key cited authors, and research gap from every summary, and asks the
model once more for a single project that addresses all of the gaps.

Each run writes a table (CSV and XLSX), the unified solution, a word cloud,
and charts of cited authors and methodology to output/<run-id>/, then
appends one row to the run history.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-synth.yaml or ~/.config/research-synth/research-synth.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "diagnostic log level: debug, info, warn, error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-synth")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-synth"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_SYNTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
