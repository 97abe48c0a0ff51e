package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Export kinds.
const (
	KindExport = "export"
	KindMerge  = "merge"
)

// ExportRecord is one produced spreadsheet.
type ExportRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Filename   string    `json:"filename"`
	Rows       int       `json:"rows"`
	Duplicates int       `json:"duplicates"`
	CreatedAt  time.Time `json:"created_at"`
}
