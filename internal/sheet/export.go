package sheet

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/kalambet/sparelist/internal/worklist"
)

const (
	ExportSheetName = "Added Items"
	ExportFilename  = "added_items.xlsx"
	MergeFilename   = "updated_added_items.xlsx"
)

// ExportColumns is the fixed column order of an exported worklist.
var ExportColumns = []string{
	"Number",
	"Asset Tag",
	"Position",
	"Quantity",
	"Spare",
	"Short Description",
	"Full Description",
	"Material",
	"AMOC Code",
	"AMOC Code (old)",
}

// exportRow maps an entry to ExportColumns. Number is regenerated from the
// entry's position in the list.
func exportRow(n int, e worklist.Entry) []string {
	return []string{
		strconv.Itoa(n),
		e.AssetTag,
		e.Position,
		e.Quantity,
		e.Spare,
		e.ShortDesc,
		e.LongDesc,
		e.Material,
		e.AMOCCode,
		e.AMOCCodeOld,
	}
}

// Export writes entries into doc, one row each, under ExportColumns.
func Export(doc Document, entries []worklist.Entry, padding int) error {
	cells := make([][]string, len(entries))
	for i, e := range entries {
		row := exportRow(i+1, e)
		cells[i] = row

		if err := doc.SetCell(i+2, 1, i+1); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
		for col := 1; col < len(row); col++ {
			if err := doc.SetCell(i+2, col+1, row[col]); err != nil {
				return fmt.Errorf("writing row %d: %w", i+1, err)
			}
		}
	}
	return layout(doc, ExportColumns, cells, padding)
}

// ExportWorkbook renders entries as a new single-sheet .xlsx document.
func ExportWorkbook(entries []worklist.Entry, padding int) ([]byte, error) {
	wb, err := NewWorkbook(ExportSheetName)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if err := Export(wb, entries, padding); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}
