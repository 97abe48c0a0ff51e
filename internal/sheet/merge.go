package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/kalambet/sparelist/internal/worklist"
)

// ErrEmptySheet is returned when the first sheet has no header row.
var ErrEmptySheet = errors.New("first sheet has no header row")

// NumberColumn holds the row number of appended rows.
const NumberColumn = "Number"

// Row is one existing data row keyed by header label. Every header label is
// present; cells missing from the sheet read as "".
type Row map[string]string

// MergeResult summarises a merge.
type MergeResult struct {
	Existing   int `json:"existing"`
	Appended   int `json:"appended"`
	Duplicates int `json:"duplicates"`
}

// sheetTable is the parsed first sheet.
type sheetTable struct {
	header []string
	raw    [][]string // data rows as stored, blank rows included
	rows   []Row      // non-blank data rows
}

// ReadRows parses the document's sheet into its header and non-blank rows.
func ReadRows(doc Document) ([]string, []Row, error) {
	t, err := readTable(doc)
	if err != nil {
		return nil, nil, err
	}
	return t.header, t.rows, nil
}

func readTable(doc Document) (sheetTable, error) {
	all, err := doc.Rows()
	if err != nil {
		return sheetTable{}, err
	}
	if len(all) == 0 || blank(all[0]) {
		return sheetTable{}, ErrEmptySheet
	}

	t := sheetTable{header: all[0], raw: all[1:]}
	for _, cells := range t.raw {
		if blank(cells) {
			continue
		}
		row := make(Row, len(t.header))
		for i, label := range t.header {
			if label == "" {
				continue
			}
			if i < len(cells) {
				row[label] = cells[i]
			} else {
				row[label] = ""
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// IsDuplicate reports whether some row carries every field present on e
// with an equal value. A field whose key is not a header of the row makes
// that row non-equal.
func IsDuplicate(e worklist.Entry, rows []Row) bool {
	fields := e.Fields()
	for _, row := range rows {
		if matches(fields, row) {
			return true
		}
	}
	return false
}

func matches(fields []worklist.Field, row Row) bool {
	for _, f := range fields {
		v, ok := row[f.Key]
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

// Merge appends the entries that are not already present in doc's sheet.
// Appended rows are numbered from the existing row count + 1 in the Number
// column; existing rows are left as they are. Keys not yet in the header
// become new columns after the existing ones.
func Merge(doc Document, entries []worklist.Entry, padding int) (MergeResult, error) {
	t, err := readTable(doc)
	if err != nil {
		return MergeResult{}, err
	}

	res := MergeResult{Existing: len(t.rows)}

	header := append([]string(nil), t.header...)
	index := make(map[string]int, len(header))
	for i, label := range header {
		if _, ok := index[label]; !ok && label != "" {
			index[label] = i
		}
	}
	column := func(label string) int {
		if i, ok := index[label]; ok {
			return i
		}
		header = append(header, label)
		index[label] = len(header) - 1
		return len(header) - 1
	}

	// Appended rows start below the last stored row, blank rows included.
	firstNew := len(t.raw) + 2
	var appended []map[int]string
	for _, e := range entries {
		if IsDuplicate(e, t.rows) {
			res.Duplicates++
			continue
		}

		sheetRow := firstNew + res.Appended
		number := res.Existing + res.Appended + 1

		numCol := column(NumberColumn)
		if err := doc.SetCell(sheetRow, numCol+1, number); err != nil {
			return MergeResult{}, fmt.Errorf("writing row %d: %w", sheetRow, err)
		}
		line := map[int]string{numCol: strconv.Itoa(number)}

		for _, f := range e.Fields() {
			col := column(f.Key)
			if err := doc.SetCell(sheetRow, col+1, f.Value); err != nil {
				return MergeResult{}, fmt.Errorf("writing row %d: %w", sheetRow, err)
			}
			line[col] = f.Value
		}

		appended = append(appended, line)
		res.Appended++
	}

	cells := make([][]string, 0, len(t.raw)+len(appended))
	cells = append(cells, t.raw...)
	for _, line := range appended {
		row := make([]string, len(header))
		for col, v := range line {
			row[col] = v
		}
		cells = append(cells, row)
	}

	if err := layout(doc, header, cells, padding); err != nil {
		return MergeResult{}, err
	}
	return res, nil
}

// MergeWorkbook merges entries into the .xlsx document read from r and
// returns the updated document.
func MergeWorkbook(r io.Reader, entries []worklist.Entry, padding int) ([]byte, MergeResult, error) {
	wb, err := OpenWorkbook(r)
	if err != nil {
		return nil, MergeResult{}, err
	}
	defer wb.Close()

	res, err := Merge(wb, entries, padding)
	if err != nil {
		return nil, MergeResult{}, err
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, MergeResult{}, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), res, nil
}
