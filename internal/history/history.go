// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history is the append-only run log. Each finished run adds one
// record; records are listed most recent first.
package history

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/pdiddy/research-synth/pkg/types"
)

// Log appends run records and lists them back.
type Log interface {
	Append(ctx context.Context, rec types.RunRecord) error
	LoadAll(ctx context.Context) ([]types.RunRecord, error)
	Close() error
}

// Open returns the log selected by cfg.Backend. Extra options are passed
// to the Sheets client only.
func Open(ctx context.Context, cfg types.HistoryConfig, opts ...option.ClientOption) (Log, error) {
	switch cfg.Backend {
	case types.HistorySQLite, "":
		return OpenSQLite(cfg.Path)
	case types.HistorySheets:
		return NewSheetsLog(ctx, cfg, opts...)
	case types.HistoryNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q: use sqlite, sheets, or none", cfg.Backend)
	}
}

// Nop discards records.
type Nop struct{}

func (Nop) Append(context.Context, types.RunRecord) error { return nil }

func (Nop) LoadAll(context.Context) ([]types.RunRecord, error) { return nil, nil }

func (Nop) Close() error { return nil }
