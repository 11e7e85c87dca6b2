// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/research-synth/pkg/types"
)

// SheetName is the worksheet holding the analysis table.
const SheetName = "Analysis"

// WriteXLSX writes the analysis table to a workbook at path.
func WriteXLSX(path string, run *types.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	rows := append([][]string{Header}, Rows(run)...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
