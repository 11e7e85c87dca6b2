// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Input is one PDF submitted to a run: a file on disk, an uploaded byte
// stream, or a remote document fetched when the paper is extracted.
type Input struct {
	Name string
	Path string
	Data []byte

	// Fetch, when set, supplies Data during extraction. A fetch error
	// fails the paper like any other extraction failure.
	Fetch func(ctx context.Context) ([]byte, error)
}

// FileInput returns an Input for the PDF at path.
func FileInput(path string) Input {
	return Input{Name: filepath.Base(path), Path: path}
}

// BytesInput returns an Input for an uploaded PDF.
func BytesInput(name string, data []byte) Input {
	return Input{Name: name, Data: data}
}

// Discover lists the .pdf files directly under dir, sorted by name. The
// extension match is case-insensitive. A missing directory is created and
// yields no inputs.
func Discover(dir string) ([]Input, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating papers directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading papers directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	inputs := make([]Input, len(names))
	for i, name := range names {
		inputs[i] = FileInput(filepath.Join(dir, name))
	}
	return inputs, nil
}
