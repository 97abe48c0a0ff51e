package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Document is the tabular surface the exporter and merger write through.
// Rows and columns are 1-based; row 1 is the header.
type Document interface {
	// Rows returns the cell text of the working sheet, ragged as stored.
	Rows() ([][]string, error)
	SetCell(row, col int, value any) error
	SetColumnWidth(col int, width float64) error
	SetHeaderStyle(cols int) error
	Write(w io.Writer) error
}

// HeaderFill is the background colour of header cells.
const HeaderFill = "FFFF00"

// Workbook is an excelize-backed Document bound to one sheet of a workbook.
// Other sheets in the file pass through untouched.
type Workbook struct {
	file  *excelize.File
	sheet string
}

// NewWorkbook creates an empty workbook whose only sheet is named sheet.
func NewWorkbook(sheet string) (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	return &Workbook{file: f, sheet: sheet}, nil
}

// OpenWorkbook reads an .xlsx document and binds to its first sheet.
func OpenWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errors.New("workbook has no sheets")
	}
	return &Workbook{file: f, sheet: sheets[0]}, nil
}

// SheetName returns the bound sheet.
func (w *Workbook) SheetName() string {
	return w.sheet
}

// SheetList returns every sheet in workbook order.
func (w *Workbook) SheetList() []string {
	return w.file.GetSheetList()
}

// RowsOf returns the rows of another sheet in the same workbook.
func (w *Workbook) RowsOf(sheet string) ([][]string, error) {
	return w.file.GetRows(sheet)
}

func (w *Workbook) Rows() ([][]string, error) {
	rows, err := w.file.GetRows(w.sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", w.sheet, err)
	}
	return rows, nil
}

func (w *Workbook) SetCell(row, col int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.file.SetCellValue(w.sheet, cell, value)
}

func (w *Workbook) SetColumnWidth(col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return w.file.SetColWidth(w.sheet, name, name, width)
}

func (w *Workbook) SetHeaderStyle(cols int) error {
	if cols <= 0 {
		return nil
	}
	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{HeaderFill}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(w.sheet, "A1", last, style)
}

func (w *Workbook) Write(dst io.Writer) error {
	return w.file.Write(dst)
}

// Close releases temporary files held by the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// HeaderStyled reports whether the header cell in column col is bold with
// the header fill.
func (w *Workbook) HeaderStyled(col int) (bool, error) {
	cell, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return false, err
	}
	id, err := w.file.GetCellStyle(w.sheet, cell)
	if err != nil {
		return false, err
	}
	style, err := w.file.GetStyle(id)
	if err != nil {
		return false, err
	}
	if style.Font == nil || !style.Font.Bold {
		return false, nil
	}
	for _, c := range style.Fill.Color {
		if strings.HasSuffix(strings.ToUpper(c), HeaderFill) {
			return true, nil
		}
	}
	return false, nil
}

// ColumnWidth returns the width set on column col.
func (w *Workbook) ColumnWidth(col int) (float64, error) {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return 0, err
	}
	return w.file.GetColWidth(w.sheet, name)
}
