// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"strings"
	"text/template"

	"github.com/pdiddy/research-synth/pkg/types"
)

// SectionHeaders are the summary headers the model is asked for, in order.
var SectionHeaders = []string{
	"TITLE",
	"ABSTRACT",
	"TOC",
	"INTRODUCTION",
	"LITERATURE REVIEW",
	"DESIGN/METHODOLOGY",
	"IMPLICATION",
	"REFERENCE LIST",
	"SCHEDULE/BUDGET",
	"RESEARCH GAP",
}

// summaryPromptTmpl is sent once per paper.
var summaryPromptTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`Analyze this research paper ({{.Name}}) and provide a summary with these headers:
{{join .Headers ", "}}.
{{if .Tags}}
CRITICAL CLASSIFICATION (Choose ONE for each):
METHOD_TYPE: [{{.Methods}}]
KEY_AUTHORS: [List top 5 cited authors/papers, separated by commas]
{{end}}
TEXT: {{.Text}}
`))

// synthesisPromptTmpl is sent once per run over every collected gap.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`Propose one research project that solves all these gaps: {{.Gaps}}
{{if .Structured}}
Structure the proposal with these headers:
TITLE: a single project title
COMBINED METHODOLOGY: how the project addresses every gap together
EXPECTED IMPACT: what the project would change
{{end}}`))

type summaryData struct {
	Name    string
	Headers []string
	Tags    bool
	Methods string
	Text    string
}

type synthesisData struct {
	Gaps       string
	Structured bool
}

// methodChoices renders the closed method set as "A, B, C, or D".
func methodChoices() string {
	names := make([]string, len(types.KnownMethodTypes))
	for i, m := range types.KnownMethodTypes {
		names[i] = string(m)
	}
	if len(names) < 2 {
		return strings.Join(names, "")
	}
	return strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
