package sheet

import (
	"fmt"
	"unicode/utf8"
)

// DefaultColumnPadding is added to the widest cell of each column.
const DefaultColumnPadding = 2

// layout writes the header row, sizes every column to its widest cell
// plus padding, and styles the header. cells holds the data rows below the
// header, one string per column (missing trailing cells are empty).
func layout(doc Document, header []string, cells [][]string, padding int) error {
	for i, label := range header {
		if err := doc.SetCell(1, i+1, label); err != nil {
			return fmt.Errorf("writing header %q: %w", label, err)
		}
	}

	for col, width := range columnWidths(header, cells, padding) {
		if err := doc.SetColumnWidth(col+1, width); err != nil {
			return fmt.Errorf("setting width of column %d: %w", col+1, err)
		}
	}

	if err := doc.SetHeaderStyle(len(header)); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	return nil
}

// columnWidths returns max(header length, longest cell) + padding for each
// header column, measured in characters.
func columnWidths(header []string, cells [][]string, padding int) []float64 {
	widths := make([]float64, len(header))
	for i, label := range header {
		w := utf8.RuneCountInString(label)
		for _, row := range cells {
			if i < len(row) {
				w = max(w, utf8.RuneCountInString(row[i]))
			}
		}
		widths[i] = float64(w + padding)
	}
	return widths
}
