// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire turns remote paper identifiers (arXiv IDs, DOIs, and
// direct PDF URLs) into byte-stream pipeline inputs. Downloads happen
// lazily, when the pipeline extracts the paper.
package acquire

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-synth/internal/httputil"
	"github.com/pdiddy/research-synth/internal/logging"
	"github.com/pdiddy/research-synth/internal/pipeline"
)

// IdentifierType classifies an input identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeArxiv
	TypeDOI
	TypeURL
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeDOI:
		return "doi"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// Base URLs for identifier resolution. Tests substitute httptest servers.
var (
	arxivPDFBase = "https://arxiv.org/pdf/"
	doiBase      = "https://doi.org/"
)

const (
	defaultUserAgent = "research-synth/0.1"

	// DefaultMaxBytes caps a single download.
	DefaultMaxBytes = 64 << 20
)

// arxivPattern matches "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches "10.1145/1234567.1234568", optionally prefixed "doi:".
var doiPattern = regexp.MustCompile(`^(?:doi:)?(10\.\d{4,9}/\S+)$`)

var pdfMagic = []byte("%PDF-")

// ErrNotPDF is returned when a download does not start with a PDF header.
var ErrNotPDF = errors.New("response is not a PDF")

// Classify determines the identifier type and returns its normalized form.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxiv, m[1]
	}
	if m := doiPattern.FindStringSubmatch(identifier); m != nil {
		return TypeDOI, m[1]
	}
	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return TypeURL, identifier
	}
	return TypeUnknown, identifier
}

// PDFURL returns the download URL for a classified identifier. DOIs go
// through the doi.org resolver and rely on the client following redirects.
func PDFURL(idType IdentifierType, normalized string) string {
	switch idType {
	case TypeArxiv:
		return arxivPDFBase + normalized
	case TypeDOI:
		return doiBase + normalized
	case TypeURL:
		return normalized
	default:
		return ""
	}
}

// Name returns the display filename used for the paper in reports.
func Name(idType IdentifierType, normalized string) string {
	switch idType {
	case TypeArxiv:
		return "arxiv-" + normalized + ".pdf"
	case TypeDOI:
		return "doi-" + strings.NewReplacer("/", "-", ":", "-").Replace(normalized) + ".pdf"
	case TypeURL:
		u, err := url.Parse(normalized)
		if err == nil {
			base := path.Base(u.Path)
			if base != "" && base != "." && base != "/" {
				if !strings.EqualFold(path.Ext(base), ".pdf") {
					base += ".pdf"
				}
				return base
			}
		}
		h := sha256.Sum256([]byte(normalized))
		return fmt.Sprintf("url-%x.pdf", h[:8])
	default:
		return normalized
	}
}

// Fetcher downloads PDFs over HTTP.
type Fetcher struct {
	Client     *http.Client
	UserAgent  string
	MaxBytes   int64
	MaxRetries int
	Log        *zap.Logger
}

// Input returns a lazily-fetched pipeline input for identifier. ok is
// false when the identifier is not an arXiv ID, DOI, or URL.
func (f *Fetcher) Input(identifier string) (in pipeline.Input, ok bool) {
	idType, normalized := Classify(identifier)
	if idType == TypeUnknown {
		return pipeline.Input{}, false
	}
	pdfURL := PDFURL(idType, normalized)
	return pipeline.Input{
		Name: Name(idType, normalized),
		Fetch: func(ctx context.Context) ([]byte, error) {
			return f.Fetch(ctx, pdfURL)
		},
	}, true
}

// Fetch downloads the PDF at rawURL into memory.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	ua := f.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	log := logging.OrNop(f.Log)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, httputil.Policy{MaxRetries: f.MaxRetries, Log: log})
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading download: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("download from %s exceeds %d bytes", rawURL, limit)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotPDF)
	}

	log.Debug("downloaded", zap.String("url", rawURL), zap.Int("bytes", len(data)))
	return data, nil
}
