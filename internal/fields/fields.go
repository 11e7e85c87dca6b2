// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fields scans model summaries for labeled values.
//
// The parser is deliberately literal. For a marker such as "METHOD_TYPE:"
// it finds the last occurrence, takes the text after it up to the next
// line break, and trims surrounding whitespace. A missing marker yields an
// empty value, never an error. Callers must not expect more than that:
// markdown decoration, quoting, or a value on the following line are all
// passed through or missed exactly as the scan dictates.
package fields

import (
	"strings"

	"github.com/pdiddy/research-synth/pkg/types"
)

// Marker strings the summary prompt asks the model to emit.
const (
	MethodTypeMarker = "METHOD_TYPE:"
	AuthorsMarker    = "KEY_AUTHORS:"
	GapMarker        = "GAP"
)

// minAuthorLen is the shortest author fragment kept; "Al" and "Bo" are dropped.
const minAuthorLen = 3

// Parser extracts the single-line value following the last occurrence of Marker.
type Parser struct {
	Marker string
}

// Line returns the trimmed text between the last Marker and the next
// newline. ok is false when Marker does not occur.
func (p Parser) Line(text string) (value string, ok bool) {
	if p.Marker == "" {
		return "", false
	}
	i := strings.LastIndex(text, p.Marker)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(p.Marker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest), true
}

// List splits the Line value on commas, trims each fragment, and drops
// fragments shorter than minLen characters.
func (p Parser) List(text string, minLen int) []string {
	line, ok := p.Line(text)
	if !ok {
		return nil
	}
	var out []string
	for _, frag := range strings.Split(line, ",") {
		frag = strings.TrimSpace(frag)
		if len([]rune(frag)) >= minLen {
			out = append(out, frag)
		}
	}
	return out
}

var (
	methodParser  = Parser{Marker: MethodTypeMarker}
	authorsParser = Parser{Marker: AuthorsMarker}
)

// MethodType returns the METHOD_TYPE value, or "" when absent.
func MethodType(summary string) types.MethodType {
	v, _ := methodParser.Line(summary)
	return types.MethodType(v)
}

// Authors returns the KEY_AUTHORS list with fragments of two or fewer
// characters removed.
func Authors(summary string) []string {
	return authorsParser.List(summary, minAuthorLen)
}

// Gap returns everything after the last case-insensitive occurrence of
// "GAP". Unlike the other fields it is not limited to one line. The
// returned text keeps the summary's original casing.
func Gap(summary string) (string, bool) {
	i := lastIndexFoldASCII(summary, GapMarker)
	if i < 0 {
		return "", false
	}
	return summary[i+len(GapMarker):], true
}

// Parse extracts every known field from a summary.
func Parse(summary string) types.PaperFields {
	gap, _ := Gap(summary)
	return types.PaperFields{
		MethodType: MethodType(summary),
		Authors:    Authors(summary),
		Gap:        gap,
	}
}

// lastIndexFoldASCII is strings.LastIndex with ASCII case folding. It
// indexes the original string so multi-byte runes elsewhere do not shift
// the offset the way strings.ToUpper can.
func lastIndexFoldASCII(s, sub string) int {
	n := len(sub)
	for i := len(s) - n; i >= 0; i-- {
		if equalFoldASCII(s[i:i+n], sub) {
			return i
		}
	}
	return -1
}

func equalFoldASCII(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
