// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-synth/internal/pdftext"
	"github.com/pdiddy/research-synth/pkg/types"
)

// --- fakes ---

// textDoc is a one-page document whose text is the raw input bytes.
type textDoc struct{ text string }

func (d textDoc) NumPage() int                 { return 1 }
func (d textDoc) PageText(int) (string, error) { return d.text, nil }

func textOpener(r io.ReaderAt, size int64) (pdftext.Document, error) {
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if bytes.HasPrefix(buf, []byte("CORRUPT")) {
		return nil, errors.New("malformed xref table")
	}
	return textDoc{text: string(buf)}, nil
}

// fakeModel answers summary prompts from a per-paper table and records
// every synthesis prompt. Entries in delay slow a paper down so workers
// finish out of submission order.
type fakeModel struct {
	mu         sync.Mutex
	summaries  map[string]string
	failures   map[string]error
	delay      map[string]time.Duration
	solution   string
	synthErr   error
	synthCalls []string
}

func (m *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.HasPrefix(prompt, "Propose one research project") {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.synthCalls = append(m.synthCalls, prompt)
		return m.solution, m.synthErr
	}
	for name, summary := range m.summaries {
		if !strings.Contains(prompt, "("+name+")") {
			continue
		}
		if d := m.delay[name]; d > 0 {
			time.Sleep(d)
		}
		if err := m.failures[name]; err != nil {
			return "", err
		}
		return summary, nil
	}
	return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
}

func (m *fakeModel) synthesisCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.synthCalls)
}

const researchBody = "Abstract. Introduction. Methodology with participants. Results and discussion. Conclusion. References. Smith et al."

func paperSummary(method, authors, gap string) string {
	return "TITLE: t\nMETHOD_TYPE: " + method + "\nKEY_AUTHORS: " + authors + "\nRESEARCH GAP: " + gap
}

func newTestPipeline(t *testing.T, cfg types.PipelineConfig, model *fakeModel) *Pipeline {
	t.Helper()
	p, err := New(cfg, model, nil)
	require.NoError(t, err)
	p.extractor = pdftext.New(cfg.Extract, nil).WithOpener(textOpener)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	p.newID = func() string { return "run-1" }
	return p
}

func threePapers() ([]Input, *fakeModel) {
	inputs := []Input{
		BytesInput("a.pdf", []byte("alpha "+researchBody)),
		BytesInput("b.pdf", []byte("beta "+researchBody)),
		BytesInput("c.pdf", []byte("gamma "+researchBody)),
	}
	model := &fakeModel{
		summaries: map[string]string{
			"a.pdf": paperSummary("Qualitative", "Smith, Jones", "small samples"),
			"b.pdf": paperSummary("Quantitative", "Smith, Lee", "no replication"),
			"c.pdf": paperSummary("Qualitative", "Jones", "short horizon"),
		},
		solution: "Unified project",
	}
	return inputs, model
}

// --- Run ---

func TestRun(t *testing.T) {
	inputs, model := threePapers()
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	var out bytes.Buffer
	run, summary, err := p.Run(context.Background(), inputs, &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{Valid: 3}, summary)
	assert.Equal(t, 3, summary.Total())
	assert.False(t, summary.HasFailures())

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "Research synthesis 2026-03-01 09:30", run.Title)
	assert.Equal(t, 3, run.ValidCount)
	assert.Equal(t, "Unified project", run.Solution)
	assert.Equal(t, "\nGap from a.pdf: : small samples\nGap from b.pdf: : no replication\nGap from c.pdf: : short horizon", run.Gaps)
	assert.Equal(t, 1, model.synthesisCalls())

	for _, paper := range run.Papers {
		assert.Equal(t, types.StateReported, paper.State, paper.Name)
		assert.Nil(t, paper.Verdict, "classification is off by default")
	}
	assert.Equal(t, types.MethodQuantitative, run.Papers[1].Fields.MethodType)
	assert.Equal(t, []string{"Smith", "Lee"}, run.Papers[1].Fields.Authors)

	assert.Contains(t, run.Corpus, "alpha")
	assert.Contains(t, run.Corpus, "gamma")
	assert.Contains(t, out.String(), "analyzed b.pdf (Quantitative, 2 authors)")
	assert.Contains(t, out.String(), "synthesizing 3 gaps")
}

func TestRunEmptyInput(t *testing.T) {
	model := &fakeModel{}
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	run, _, err := p.Run(context.Background(), nil, io.Discard)
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Nil(t, run)
	assert.Zero(t, model.synthesisCalls())
}

func TestRunFailuresDoNotStopBatch(t *testing.T) {
	inputs, model := threePapers()
	inputs[0] = BytesInput("a.pdf", []byte("CORRUPT"))
	model.failures = map[string]error{"b.pdf": errors.New("model unavailable")}
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	var out bytes.Buffer
	run, summary, err := p.Run(context.Background(), inputs, &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{Valid: 1, Failed: 2}, summary)
	assert.True(t, summary.HasFailures())

	a, b, c := run.Papers[0], run.Papers[1], run.Papers[2]
	assert.Equal(t, types.StateFailed, a.State)
	assert.True(t, strings.HasPrefix(a.Text, pdftext.ErrorPrefix))
	assert.Contains(t, a.Error, "malformed xref table")

	assert.Equal(t, types.StateFailed, b.State)
	assert.Contains(t, b.Error, "model unavailable")

	assert.Equal(t, types.StateReported, c.State)
	assert.Equal(t, "\nGap from c.pdf: : short horizon", run.Gaps, "failed papers are excluded from the aggregate")

	assert.NotContains(t, run.Corpus, "CORRUPT")
	assert.Contains(t, run.Corpus, "beta", "text extracted before an inference failure still feeds the corpus")
	assert.Contains(t, out.String(), "failed  a.pdf")
	assert.Contains(t, out.String(), "failed  b.pdf")
}

func TestRunNoValidPapers(t *testing.T) {
	inputs, model := threePapers()
	model.failures = map[string]error{
		"a.pdf": errors.New("x"), "b.pdf": errors.New("x"), "c.pdf": errors.New("x"),
	}
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	var out bytes.Buffer
	run, summary, err := p.Run(context.Background(), inputs, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Failed)
	assert.Zero(t, run.ValidCount)
	assert.False(t, run.Synthesized())
	assert.Empty(t, run.Solution)
	assert.Zero(t, model.synthesisCalls())
	assert.Contains(t, out.String(), "no valid papers")
}

func TestRunSummariesWithoutGap(t *testing.T) {
	inputs, model := threePapers()
	model.summaries["b.pdf"] = "TITLE: t\nMETHOD_TYPE: Review\nKEY_AUTHORS: Lee"
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	run, summary, err := p.Run(context.Background(), inputs, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Valid)
	assert.Equal(t, "\nGap from a.pdf: : small samples\nGap from c.pdf: : short horizon", run.Gaps,
		"a summary with no GAP marker adds no entry")
	assert.Equal(t, 1, model.synthesisCalls())
	assert.NotContains(t, model.synthCalls[0], "b.pdf")
}

func TestRunNoGapsSkipsSynthesis(t *testing.T) {
	inputs, model := threePapers()
	for name := range model.summaries {
		model.summaries[name] = "TITLE: t\nMETHOD_TYPE: Review"
	}
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	var out bytes.Buffer
	run, summary, err := p.Run(context.Background(), inputs, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Valid)
	assert.Equal(t, 3, run.ValidCount)
	assert.Empty(t, run.Gaps)
	assert.Empty(t, run.Solution)
	assert.False(t, run.Synthesized())
	assert.Zero(t, model.synthesisCalls())
	assert.Contains(t, out.String(), "no research gaps found")
	for _, paper := range run.Papers {
		assert.Equal(t, types.StateReported, paper.State, paper.Name)
	}
}

func TestRunAllRejected(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Classify.Strategy = types.ClassifyHeuristic
	model := &fakeModel{}
	p := newTestPipeline(t, cfg, model)

	inputs := []Input{
		BytesInput("cv.pdf", []byte("Curriculum vitae. Work experience. Skills. Hobbies.")),
		BytesInput("invoice.pdf", []byte("Invoice 1042, total due in 30 days.")),
	}
	var out bytes.Buffer
	run, summary, err := p.Run(context.Background(), inputs, &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{Skipped: 2}, summary)
	assert.Zero(t, run.ValidCount)
	assert.Empty(t, run.Valid())
	assert.Zero(t, model.synthesisCalls())
	for _, paper := range run.Papers {
		assert.Equal(t, types.StateSkipped, paper.State)
		require.NotNil(t, paper.Verdict)
		assert.False(t, paper.Verdict.IsPaper)
		assert.True(t, strings.HasPrefix(paper.Error, "rejected: "))
	}
	assert.Contains(t, out.String(), "rejected cv.pdf")
}

func TestRunClassifierPasses(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Classify.Strategy = types.ClassifyHeuristic
	inputs, model := threePapers()
	p := newTestPipeline(t, cfg, model)

	run, summary, err := p.Run(context.Background(), inputs, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Valid)
	for _, paper := range run.Papers {
		require.NotNil(t, paper.Verdict)
		assert.True(t, paper.Verdict.IsPaper)
		assert.Equal(t, types.StateReported, paper.State)
	}
}

func TestRunBatchLimit(t *testing.T) {
	model := &fakeModel{summaries: map[string]string{}, solution: "s"}
	var inputs []Input
	for i := range 12 {
		name := fmt.Sprintf("p%02d.pdf", i)
		inputs = append(inputs, BytesInput(name, []byte(researchBody)))
		model.summaries[name] = paperSummary("Review", "Smith", "g")
	}
	cfg := types.DefaultPipelineConfig()
	cfg.MaxBatch = 50
	p := newTestPipeline(t, cfg, model)

	var out bytes.Buffer
	run, summary, err := p.Run(context.Background(), inputs, &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{Valid: 10, Skipped: 2}, summary)
	require.Len(t, run.Papers, 12)
	assert.Equal(t, types.StateSkipped, run.Papers[10].State)
	assert.Equal(t, types.StateSkipped, run.Papers[11].State)
	assert.Contains(t, run.Papers[11].Error, "batch limit of 10")
	assert.Contains(t, out.String(), "skipped p11.pdf")
}

func TestRunSynthesisError(t *testing.T) {
	inputs, model := threePapers()
	model.synthErr = errors.New("rate limited")
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	run, _, err := p.Run(context.Background(), inputs, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesizing solution")
	require.NotNil(t, run)
	assert.Equal(t, 3, run.ValidCount)
	assert.Empty(t, run.Solution)
	assert.Equal(t, types.StateFieldsParsed, run.Papers[0].State)
}

func TestRunCanceled(t *testing.T) {
	inputs, model := threePapers()
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run, summary, err := p.Run(ctx, inputs, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, summary.Failed)
	assert.Zero(t, model.synthesisCalls())
	assert.Len(t, run.Papers, 3)
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	runWith := func(workers int) *types.Run {
		inputs, model := threePapers()
		model.delay = map[string]time.Duration{"a.pdf": 30 * time.Millisecond, "b.pdf": 10 * time.Millisecond}
		cfg := types.DefaultPipelineConfig()
		cfg.Workers = workers
		p := newTestPipeline(t, cfg, model)
		run, _, err := p.Run(context.Background(), inputs, io.Discard)
		require.NoError(t, err)
		return run
	}

	serial, parallel := runWith(1), runWith(4)
	assert.Equal(t, serial.Gaps, parallel.Gaps)
	assert.Equal(t, serial.Corpus, parallel.Corpus)
	require.Len(t, parallel.Papers, len(serial.Papers))
	for i := range serial.Papers {
		assert.Equal(t, serial.Papers[i].Name, parallel.Papers[i].Name)
		assert.Equal(t, serial.Papers[i].Fields, parallel.Papers[i].Fields)
	}
}

// --- Screen ---

func TestScreen(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Classify.Strategy = types.ClassifyHeuristic
	p := newTestPipeline(t, cfg, &fakeModel{})

	papers, err := p.Screen(context.Background(), []Input{
		BytesInput("paper.pdf", []byte(researchBody)),
		BytesInput("cv.pdf", []byte("Curriculum vitae. Skills. Hobbies.")),
		BytesInput("broken.pdf", []byte("CORRUPT")),
	}, io.Discard)
	require.NoError(t, err)
	require.Len(t, papers, 3)

	assert.Equal(t, types.StateClassified, papers[0].State)
	assert.Equal(t, types.StateSkipped, papers[1].State)
	assert.Equal(t, types.StateFailed, papers[2].State)
	assert.Empty(t, papers[0].Summary)
}

// --- Discover ---

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "A.PDF", "notes.txt", "c.Pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	inputs, err := Discover(dir)
	require.NoError(t, err)

	var names []string
	for _, in := range inputs {
		names = append(names, in.Name)
		assert.Equal(t, filepath.Join(dir, in.Name), in.Path)
	}
	assert.Equal(t, []string{"A.PDF", "b.pdf", "c.Pdf"}, names)
}

func TestDiscoverCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "papers")

	inputs, err := Discover(dir)
	require.NoError(t, err)
	assert.Empty(t, inputs)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRunFetchedInputs(t *testing.T) {
	_, model := threePapers()
	p := newTestPipeline(t, types.DefaultPipelineConfig(), model)

	inputs := []Input{
		{Name: "a.pdf", Fetch: func(context.Context) ([]byte, error) { return []byte("alpha " + researchBody), nil }},
		{Name: "b.pdf", Fetch: func(context.Context) ([]byte, error) { return nil, errors.New("HTTP 404") }},
	}
	var out bytes.Buffer
	run, summary, err := p.Run(context.Background(), inputs, &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{Valid: 1, Failed: 1}, summary)
	assert.Equal(t, types.StateReported, run.Papers[0].State)
	assert.Equal(t, types.StateFailed, run.Papers[1].State)
	assert.Equal(t, pdftext.ErrorPrefix+"HTTP 404", run.Papers[1].Text)
	assert.Contains(t, out.String(), "downloading a.pdf")
}
