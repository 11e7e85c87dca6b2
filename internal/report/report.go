// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a finished run: the analysis table as CSV and
// XLSX, the unified solution text, a word cloud of the corpus, and charts
// of cited authors and methodology labels.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-synth/pkg/types"
)

// Artifact file names inside a run directory.
const (
	TableCSV     = "Research_Analysis.csv"
	TableXLSX    = "Research_Analysis.xlsx"
	SolutionFile = "Unified_Solution.txt"
	WordCloudPNG = "Research_WordCloud.png"
	CitationsPNG = "Top_Citations.png"
	MethodsPNG   = "Methodology_Distribution.png"
	ManifestFile = "run.yaml"
)

// TopAuthorCount is the number of authors shown in the citations chart.
const TopAuthorCount = 10

// Header is the first row of the analysis table.
var Header = []string{"Filename", "Status", "Method Type", "Key Authors", "Research Gap", "Full Summary"}

// Count is one labeled frequency.
type Count struct {
	Label string
	N     int
}

// sortCounts orders by frequency descending, then label ascending.
func sortCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// MethodCounts tallies non-empty methodology labels. Unknown labels are
// counted as written.
func MethodCounts(labels []types.MethodType) []Count {
	m := make(map[string]int)
	for _, l := range labels {
		if l == "" {
			continue
		}
		m[string(l)]++
	}
	return sortCounts(m)
}

// TopAuthors returns the n most frequent names.
func TopAuthors(authors []string, n int) []Count {
	m := make(map[string]int)
	for _, a := range authors {
		m[a]++
	}
	counts := sortCounts(m)
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// runMethods and runAuthors collect fields from valid papers only.
func runMethods(run *types.Run) []types.MethodType {
	var out []types.MethodType
	for _, p := range run.Valid() {
		out = append(out, p.Fields.MethodType)
	}
	return out
}

func runAuthors(run *types.Run) []string {
	var out []string
	for _, p := range run.Valid() {
		out = append(out, p.Fields.Authors...)
	}
	return out
}

// Rows returns the table rows: one per valid or failed paper, in
// submission order. Skipped papers have no row.
func Rows(run *types.Run) [][]string {
	var rows [][]string
	for _, p := range run.Papers {
		if !p.Valid() && p.State != types.StateFailed {
			continue
		}
		summary := p.Summary
		if p.State == types.StateFailed {
			summary = "Error: " + p.Error
		}
		rows = append(rows, []string{
			p.Name,
			string(p.State),
			string(p.Fields.MethodType),
			strings.Join(p.Fields.Authors, ", "),
			displayGap(p.Fields.Gap),
			summary,
		})
	}
	return rows
}

// displayGap drops the separator the model writes after the GAP marker
// along with surrounding whitespace.
func displayGap(gap string) string {
	return strings.TrimSpace(strings.TrimLeft(gap, ": "))
}

// WriteTable writes the analysis table as CSV. Identical runs produce
// identical bytes.
func WriteTable(w io.Writer, run *types.Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(run)); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}

// RunDir returns the artifact directory for a run.
func RunDir(outputDir, runID string) string {
	return filepath.Join(outputDir, runID)
}

// Write regenerates every artifact for run under dir and returns the
// paths written. Charts and the word cloud are omitted when there is
// nothing to draw.
func Write(dir string, run *types.Run) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	var written []string
	record := func(name string, ok bool, err error) error {
		if err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		if ok {
			written = append(written, filepath.Join(dir, name))
		}
		return nil
	}

	steps := []struct {
		name string
		fn   func(path string) (bool, error)
	}{
		{TableCSV, func(path string) (bool, error) { return true, writeTableFile(path, run) }},
		{TableXLSX, func(path string) (bool, error) { return true, WriteXLSX(path, run) }},
		{SolutionFile, func(path string) (bool, error) { return true, os.WriteFile(path, []byte(run.Solution), 0o644) }},
		{WordCloudPNG, func(path string) (bool, error) { return WordCloud(path, run.Corpus) }},
		{CitationsPNG, func(path string) (bool, error) {
			return BarChart(path, "Top Cited Authors", TopAuthors(runAuthors(run), TopAuthorCount))
		}},
		{MethodsPNG, func(path string) (bool, error) {
			return PieChart(path, "Methodology Distribution", MethodCounts(runMethods(run)))
		}},
		{ManifestFile, func(path string) (bool, error) { return true, writeManifest(path, run) }},
	}
	for _, s := range steps {
		path := filepath.Join(dir, s.name)
		// Artifacts left by an earlier write are replaced, never merged.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return written, fmt.Errorf("removing %s: %w", s.name, err)
		}
		ok, err := s.fn(path)
		if err := record(s.name, ok, err); err != nil {
			return written, err
		}
	}
	return written, nil
}

func writeTableFile(path string, run *types.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTable(f, run); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeManifest(path string, run *types.Run) error {
	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
