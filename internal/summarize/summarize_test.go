// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-synth/internal/llm"
	"github.com/pdiddy/research-synth/pkg/types"
)

type captureGen struct {
	prompts []string
	answer  string
	err     error
}

func (g *captureGen) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.answer, g.err
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"shorter", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"longer", "abcdefgh", 5, "abcde"},
		{"multibyte", "ééééé", 3, "ééé"},
		{"unlimited", "abc", 0, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.text, tt.max))
		})
	}
}

func TestSummarizerPrompt(t *testing.T) {
	s := NewSummarizer(&captureGen{}, types.SummarizeConfig{MaxChars: 10, ClassificationTags: true}, nil)

	prompt, err := s.Prompt("a.pdf", strings.Repeat("x", 50))
	require.NoError(t, err)

	assert.Contains(t, prompt, "a.pdf")
	assert.Contains(t, prompt, "TEXT: "+strings.Repeat("x", 10)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("x", 11))
	assert.Contains(t, prompt, "METHOD_TYPE: [Qualitative, Quantitative, Mixed-Methods, or Review]")
	assert.Contains(t, prompt, "KEY_AUTHORS:")

	last := -1
	for _, h := range SectionHeaders {
		i := strings.Index(prompt, h)
		require.GreaterOrEqual(t, i, 0, "missing header %s", h)
		assert.Greater(t, i, last, "header %s out of order", h)
		last = i
	}
}

func TestSummarizerPromptWithoutTags(t *testing.T) {
	s := NewSummarizer(&captureGen{}, types.SummarizeConfig{}, nil)

	prompt, err := s.Prompt("a.pdf", "body")
	require.NoError(t, err)
	assert.NotContains(t, prompt, "METHOD_TYPE")
	assert.NotContains(t, prompt, "KEY_AUTHORS")
	assert.Contains(t, prompt, "RESEARCH GAP")
}

func TestSummarizerDefaultMaxChars(t *testing.T) {
	gen := &captureGen{answer: "ok"}
	s := NewSummarizer(gen, types.SummarizeConfig{}, nil)

	_, err := s.Summarize(context.Background(), "a.pdf", strings.Repeat("y", defaultMaxChars+100))
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], strings.Repeat("y", defaultMaxChars))
	assert.NotContains(t, gen.prompts[0], strings.Repeat("y", defaultMaxChars+1))
}

func TestSummarize(t *testing.T) {
	gen := &captureGen{answer: "TITLE: x\nRESEARCH GAP: y"}
	s := NewSummarizer(gen, types.SummarizeConfig{ClassificationTags: true}, nil)

	out, err := s.Summarize(context.Background(), "a.pdf", "body")
	require.NoError(t, err)
	assert.Equal(t, "TITLE: x\nRESEARCH GAP: y", out)
	assert.Len(t, gen.prompts, 1)
}

func TestSummarizeError(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewSummarizer(&captureGen{err: boom}, types.SummarizeConfig{}, nil)

	_, err := s.Summarize(context.Background(), "a.pdf", "body")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a.pdf")
}

func TestAggregateGaps(t *testing.T) {
	got := AggregateGaps([]GapEntry{
		{Name: "a.pdf", Gap: ": sample size"},
		{Name: "b.pdf", Gap: ": no replication"},
	})
	assert.Equal(t, "\nGap from a.pdf: : sample size\nGap from b.pdf: : no replication", got)
	assert.Empty(t, AggregateGaps(nil))
}

func TestSynthesize(t *testing.T) {
	gen := &captureGen{answer: "Project Alpha"}
	s := NewSynthesizer(gen, types.SynthesizeConfig{}, nil)

	gaps := AggregateGaps([]GapEntry{{Name: "a.pdf", Gap: "x"}})
	out, err := s.Synthesize(context.Background(), gaps)
	require.NoError(t, err)
	assert.Equal(t, "Project Alpha", out)
	require.Len(t, gen.prompts, 1, "synthesis is a single call")
	assert.True(t, strings.HasPrefix(gen.prompts[0], "Propose one research project that solves all these gaps: \nGap from a.pdf: x"))
	assert.NotContains(t, gen.prompts[0], "COMBINED METHODOLOGY")
}

func TestSynthesizeStructured(t *testing.T) {
	gen := &captureGen{answer: "TITLE: p"}
	s := NewSynthesizer(gen, types.SynthesizeConfig{Structured: true}, nil)

	_, err := s.Synthesize(context.Background(), "\nGap from a.pdf: x")
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	for _, h := range []string{"TITLE:", "COMBINED METHODOLOGY:", "EXPECTED IMPACT:"} {
		assert.Contains(t, gen.prompts[0], h)
	}
}

func TestSynthesizeNoGaps(t *testing.T) {
	gen := &captureGen{}
	s := NewSynthesizer(gen, types.SynthesizeConfig{}, nil)

	_, err := s.Synthesize(context.Background(), "  \n")
	assert.ErrorIs(t, err, ErrNoGaps)
	assert.Empty(t, gen.prompts)
}

func TestSynthesizeError(t *testing.T) {
	s := NewSynthesizer(llm.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", context.DeadlineExceeded
	}), types.SynthesizeConfig{}, nil)

	_, err := s.Synthesize(context.Background(), "\nGap from a.pdf: x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
