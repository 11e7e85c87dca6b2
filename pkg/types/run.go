// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-synth pipeline:
// papers and their states, runs, run history records, and stage configuration.
package types

import "time"

// Run is one end-to-end execution of the pipeline over a batch of papers.
type Run struct {
	// ID is a random identifier, also the name of the run's output directory.
	ID string `json:"id" yaml:"id"`

	// Title labels the run in the history log.
	Title string `json:"title" yaml:"title"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Papers holds every submitted paper in submission order.
	Papers []*Paper `json:"papers" yaml:"papers"`

	// Corpus is the concatenated extracted text used for the word cloud.
	Corpus string `json:"-" yaml:"-"`

	// Gaps is the aggregate of the gaps found in valid papers, prefixed by filename.
	Gaps string `json:"gaps" yaml:"gaps"`

	// Solution is the synthesized unified project proposal.
	Solution string `json:"solution" yaml:"solution"`

	// ValidCount is the number of papers that completed every stage.
	ValidCount int `json:"valid_count" yaml:"valid_count"`
}

// Valid returns the papers that completed every stage, in submission order.
func (r *Run) Valid() []*Paper {
	var out []*Paper
	for _, p := range r.Papers {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

// Synthesized reports whether the synthesizer ran for this run.
func (r *Run) Synthesized() bool {
	return r.Gaps != ""
}

// Record returns the history row for this run.
func (r *Run) Record() RunRecord {
	return RunRecord{
		RunID:      r.ID,
		Timestamp:  r.FinishedAt,
		Title:      r.Title,
		Solution:   r.Solution,
		ValidCount: r.ValidCount,
	}
}

// RunRecord is one row of the append-only run history.
type RunRecord struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Title      string    `json:"title" yaml:"title"`
	Solution   string    `json:"solution" yaml:"solution"`
	ValidCount int       `json:"valid_count" yaml:"valid_count"`
}
