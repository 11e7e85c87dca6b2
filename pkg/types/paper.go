// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// PaperState tracks a paper's progress through the analysis pipeline.
// States advance in declaration order; Reported, Skipped and Failed are terminal.
type PaperState string

const (
	StateUploaded     PaperState = "uploaded"
	StateExtracted    PaperState = "extracted"
	StateClassified   PaperState = "classified"
	StateSummarized   PaperState = "summarized"
	StateFieldsParsed PaperState = "fields_parsed"
	StateReported     PaperState = "reported"
	StateSkipped      PaperState = "skipped"
	StateFailed       PaperState = "failed"
)

var stateOrder = map[PaperState]int{
	StateUploaded:     0,
	StateExtracted:    1,
	StateClassified:   2,
	StateSummarized:   3,
	StateFieldsParsed: 4,
	StateReported:     5,
}

// Terminal reports whether no further transition is allowed from s.
func (s PaperState) Terminal() bool {
	return s == StateSkipped || s == StateFailed || s == StateReported
}

// MethodType is the methodology label assigned to a paper by the model.
// Labels outside the known set are kept verbatim.
type MethodType string

const (
	MethodQualitative  MethodType = "Qualitative"
	MethodQuantitative MethodType = "Quantitative"
	MethodMixed        MethodType = "Mixed-Methods"
	MethodReview       MethodType = "Review"
)

// KnownMethodTypes lists the closed set offered to the model, in prompt order.
var KnownMethodTypes = []MethodType{MethodQualitative, MethodQuantitative, MethodMixed, MethodReview}

// Known reports whether m is one of KnownMethodTypes.
func (m MethodType) Known() bool {
	for _, k := range KnownMethodTypes {
		if m == k {
			return true
		}
	}
	return false
}

// PaperFields holds the labeled values scanned out of a model summary.
// Every field is best-effort and may be empty.
type PaperFields struct {
	MethodType MethodType `json:"method_type,omitempty" yaml:"method_type,omitempty"`
	Authors    []string   `json:"authors,omitempty" yaml:"authors,omitempty"`
	Gap        string     `json:"gap,omitempty" yaml:"gap,omitempty"`
}

// Verdict is the outcome of the classification gate.
type Verdict struct {
	// IsPaper is true when the document looks like a research paper.
	IsPaper bool `json:"is_paper" yaml:"is_paper"`

	// Reason is a human-readable explanation, shown when the paper is rejected.
	Reason string `json:"reason" yaml:"reason"`

	// Strategy names the check that decided: heuristic or llm.
	Strategy string `json:"strategy" yaml:"strategy"`
}

// Paper is one PDF moving through a run. It is identified by its filename.
type Paper struct {
	// Name is the file's base name, used as the display name.
	Name string `json:"name" yaml:"name"`

	// Path is the filesystem path, empty for uploaded byte streams.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Source holds uploaded bytes when the paper did not come from disk.
	Source []byte `json:"-" yaml:"-"`

	// Text is the sampled page text, or an "Error: ..." marker on failure.
	Text string `json:"-" yaml:"-"`

	// PageCount is the document's total page count, zero if unreadable.
	PageCount int `json:"page_count" yaml:"page_count"`

	// Verdict is nil when classification did not run.
	Verdict *Verdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`

	// Summary is the raw model response.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Fields are parsed from Summary.
	Fields PaperFields `json:"fields" yaml:"fields"`

	// State is the paper's position in the pipeline.
	State PaperState `json:"state" yaml:"state"`

	// Error records why the paper was skipped or failed. Empty otherwise.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewPaper returns a paper in the Uploaded state.
func NewPaper(name, path string, source []byte) *Paper {
	return &Paper{Name: name, Path: path, Source: source, State: StateUploaded}
}

// Advance moves the paper to next. Optional states may be passed over,
// but a paper never moves backwards or out of a terminal state.
func (p *Paper) Advance(next PaperState) error {
	if p.State.Terminal() {
		return fmt.Errorf("paper %s: cannot leave terminal state %s", p.Name, p.State)
	}
	if next == StateSkipped || next == StateFailed {
		p.State = next
		return nil
	}
	cur, ok := stateOrder[p.State]
	if !ok {
		return fmt.Errorf("paper %s: unknown state %q", p.Name, p.State)
	}
	want, ok := stateOrder[next]
	if !ok {
		return fmt.Errorf("paper %s: unknown state %q", p.Name, next)
	}
	if want <= cur {
		return fmt.Errorf("paper %s: cannot move from %s to %s", p.Name, p.State, next)
	}
	p.State = next
	return nil
}

// Fail moves the paper to Failed and records the cause.
func (p *Paper) Fail(err error) {
	p.State = StateFailed
	p.Error = err.Error()
}

// Skip moves the paper to Skipped and records the reason.
func (p *Paper) Skip(reason string) {
	p.State = StateSkipped
	p.Error = reason
}

// Valid reports whether the paper reached the end of the pipeline.
func (p *Paper) Valid() bool {
	return p.State == StateFieldsParsed || p.State == StateReported
}
