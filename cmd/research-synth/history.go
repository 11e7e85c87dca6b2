// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-synth/internal/history"
	"github.com/pdiddy/research-synth/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, most recent first",
	Long: `History reads the run log (SQLite or Google Sheets, per the history
configuration) and lists each run's timestamp, title, valid-paper count,
and the start of its unified solution.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("history", "sqlite", "history backend: sqlite, sheets, none")
	historyCmd.Flags().String("history-db", "output/history.db", "SQLite history database")
	historyCmd.Flags().String("spreadsheet", "", "Google spreadsheet ID for the sheets history backend")
	historyCmd.Flags().Int("limit", 0, "show at most this many runs (0 shows all)")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	hl, err := history.Open(cmd.Context(), cfg.History)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer hl.Close()

	records, err := hl.LoadAll(cmd.Context())
	if err != nil {
		return err
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(records, jsonOutput)
}

func formatHistory(records []types.RunRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-30s  %-5s  %s\n", "TIMESTAMP", "TITLE", "VALID", "SOLUTION")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range records {
		fmt.Fprintf(os.Stdout, "%-20s  %-30s  %-5d  %s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			truncate(r.Title, 30),
			r.ValidCount,
			truncate(firstLine(r.Solution), 40),
		)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(records))
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
