// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/pdiddy/research-synth/pkg/types"
)

const defaultSheetRange = "Runs!A:E"

// SheetsLog appends run records as rows of a Google spreadsheet. Each row
// is timestamp (RFC 3339), title, solution, valid count, run ID.
type SheetsLog struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheetRange    string
}

// NewSheetsLog connects to the spreadsheet named in cfg. Credentials come
// from cfg.CredentialsFile unless opts supply a client.
func NewSheetsLog(ctx context.Context, cfg types.HistoryConfig, opts ...option.ClientOption) (*SheetsLog, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets history needs history.spreadsheet_id")
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	srv, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	rng := cfg.SheetRange
	if rng == "" {
		rng = defaultSheetRange
	}
	return &SheetsLog{values: srv.Spreadsheets.Values, spreadsheetID: cfg.SpreadsheetID, sheetRange: rng}, nil
}

// Close is a no-op; the Sheets client holds no resources.
func (s *SheetsLog) Close() error { return nil }

// Append adds one row after the last row of the range.
func (s *SheetsLog) Append(ctx context.Context, rec types.RunRecord) error {
	row := []any{
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Title,
		rec.Solution,
		rec.ValidCount,
		rec.RunID,
	}
	_, err := s.values.Append(s.spreadsheetID, s.sheetRange, &sheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending run %s to sheet: %w", rec.RunID, err)
	}
	return nil
}

// LoadAll reads every row and returns them most recent first. Rows whose
// first cell is not a timestamp, such as a header row, are ignored.
func (s *SheetsLog) LoadAll(ctx context.Context) ([]types.RunRecord, error) {
	resp, err := s.values.Get(s.spreadsheetID, s.sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	var out []types.RunRecord
	for _, row := range resp.Values {
		rec, ok := parseRow(row)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	slices.Reverse(out)
	return out, nil
}

func parseRow(row []any) (types.RunRecord, bool) {
	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return cellString(row[i])
	}

	ts, err := time.Parse(time.RFC3339, cell(0))
	if err != nil {
		return types.RunRecord{}, false
	}
	count, _ := strconv.Atoi(cell(3))
	return types.RunRecord{
		Timestamp:  ts,
		Title:      cell(1),
		Solution:   cell(2),
		ValidCount: count,
		RunID:      cell(4),
	}, true
}

func cellString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
