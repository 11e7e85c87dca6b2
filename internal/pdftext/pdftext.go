// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext samples plain text from PDF papers. Only a bounded,
// deterministic subset of pages is read: the leading pages, where title,
// abstract, and introduction live, and the trailing pages, where the
// conclusion and references live.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/logging"
	"github.com/pdiddy/research-synth/pkg/types"
)

// ErrorPrefix starts the text returned for a paper whose extraction failed.
const ErrorPrefix = "Error: "

func init() {
	// pdfcpu otherwise creates a configuration directory under $HOME.
	api.DisableConfigDir()
}

// Document is an opened PDF with zero-based page access.
type Document interface {
	NumPage() int
	PageText(i int) (string, error)
}

// OpenFunc opens a PDF from a byte stream.
type OpenFunc func(r io.ReaderAt, size int64) (Document, error)

// Result is the outcome of extracting one PDF.
type Result struct {
	// Text is the concatenated page text, or ErrorPrefix + cause on failure.
	Text string

	// PageCount is the document's total page count.
	PageCount int

	// Pages lists the zero-based pages that were read, ascending.
	Pages []int

	// Err is the failure cause. Nil on success.
	Err error
}

// Failed reports whether extraction produced an error marker instead of text.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Extractor reads sampled page text from PDFs.
type Extractor struct {
	head     int
	tail     int
	validate bool
	open     OpenFunc
	log      *zap.Logger
}

// New returns an Extractor using the ledongthuc/pdf reader.
// Non-positive page counts fall back to 12 head and 5 tail pages.
func New(cfg types.ExtractConfig, log *zap.Logger) *Extractor {
	head, tail := cfg.HeadPages, cfg.TailPages
	if head < 0 {
		head = 0
	}
	if tail < 0 {
		tail = 0
	}
	if head == 0 && tail == 0 {
		head, tail = 12, 5
	}
	return &Extractor{
		head:     head,
		tail:     tail,
		validate: cfg.Validate,
		open:     openLedongthuc,
		log:      logging.OrNop(log),
	}
}

// WithOpener replaces the PDF reader. Tests use it to supply fake documents.
func (e *Extractor) WithOpener(open OpenFunc) *Extractor {
	e.open = open
	return e
}

// Pages returns the ascending, deduplicated union of the first
// min(head, n) and the last min(tail, n) zero-based page indexes.
func Pages(n, head, tail int) []int {
	if n <= 0 {
		return nil
	}
	seen := make(map[int]bool)
	var pages []int
	add := func(p int) {
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	for p := 0; p < min(head, n); p++ {
		add(p)
	}
	for p := max(0, n-tail); p < n; p++ {
		add(p)
	}
	sort.Ints(pages)
	return pages
}

// ExtractFile reads the PDF at path. Failures are returned in the Result,
// never as a panic or a separate error value.
func (e *Extractor) ExtractFile(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Errorf("reading %s: %w", filepath.Base(path), err))
	}
	return e.ExtractBytes(filepath.Base(path), data)
}

// ExtractBytes reads a PDF held in memory. name is used for logging only.
func (e *Extractor) ExtractBytes(name string, data []byte) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Errorf("malformed PDF: %v", r))
		}
		if res.Err != nil {
			e.log.Warn("extraction failed", zap.String("paper", name), zap.Error(res.Err))
		}
	}()

	if len(data) == 0 {
		return failure(errors.New("empty file"))
	}

	if e.validate {
		if err := api.Validate(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
			return failure(fmt.Errorf("invalid PDF: %w", err))
		}
	}

	doc, err := e.open(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return failure(fmt.Errorf("opening PDF: %w", err))
	}

	n := doc.NumPage()
	pages := Pages(n, e.head, e.tail)

	var sb strings.Builder
	for _, p := range pages {
		text, err := doc.PageText(p)
		if err != nil {
			res = failure(fmt.Errorf("reading page %d: %w", p+1, err))
			res.PageCount = n
			return res
		}
		sb.WriteString(text)
	}

	e.log.Debug("extracted",
		zap.String("paper", name),
		zap.Int("page_count", n),
		zap.Ints("pages", pages),
		zap.Int("chars", sb.Len()),
	)
	return Result{Text: sb.String(), PageCount: n, Pages: pages}
}

func failure(err error) Result {
	return Result{Text: ErrorPrefix + err.Error(), Err: err}
}

// ledongthucDoc adapts *pdf.Reader, whose pages are one-based.
type ledongthucDoc struct {
	r *pdf.Reader
}

func openLedongthuc(r io.ReaderAt, size int64) (Document, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return ledongthucDoc{r: reader}, nil
}

func (d ledongthucDoc) NumPage() int {
	return d.r.NumPage()
}

func (d ledongthucDoc) PageText(i int) (string, error) {
	page := d.r.Page(i + 1)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
