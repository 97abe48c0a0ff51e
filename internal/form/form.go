// Package form holds the single operator form: the cascade selection, the
// operator metadata, the staged merge file and the worklist behind it.
package form

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/sparelist/internal/catalog"
	"github.com/kalambet/sparelist/internal/metrics"
	"github.com/kalambet/sparelist/internal/selection"
	"github.com/kalambet/sparelist/internal/sheet"
	"github.com/kalambet/sparelist/internal/storage"
	"github.com/kalambet/sparelist/internal/worklist"
)

var (
	// ErrNoFile is returned by Merge when no spreadsheet has been staged.
	ErrNoFile = errors.New("no spreadsheet staged for merge")
	// ErrUnsupportedFile is returned by StageFile for anything but .xlsx.
	ErrUnsupportedFile = errors.New("only .xlsx spreadsheets are supported")
)

// HistoryStore records produced spreadsheets.
type HistoryStore interface {
	SaveExport(ctx context.Context, rec storage.ExportRecord) error
	ListExports(ctx context.Context, limit, offset int) ([]storage.ExportRecord, error)
	GetExport(ctx context.Context, id string) (storage.ExportRecord, error)
}

// Snapshot is the full visible state of the form.
type Snapshot struct {
	Selection  selection.State   `json:"selection"`
	Meta       worklist.Meta     `json:"meta"`
	Options    selection.Options `json:"options"`
	StagedFile string            `json:"stagedFile,omitempty"`
	Items      int               `json:"items"`
}

// File is a produced spreadsheet ready for download.
type File struct {
	Name   string
	Data   []byte
	Rows   int
	Merged sheet.MergeResult
}

type staged struct {
	name string
	data []byte
}

// Form serialises every operation behind one mutex so callers from
// different surfaces cannot interleave.
type Form struct {
	engine   *selection.Engine
	items    *worklist.Store
	history  HistoryStore
	recorder *recorder
	padding  int
	logger   *slog.Logger

	mu     sync.Mutex
	state  selection.State
	meta   worklist.Meta
	staged *staged
}

// Option configures a Form.
type Option func(*Form)

// WithHistory records every export and merge in h.
func WithHistory(h HistoryStore) Option {
	return func(f *Form) {
		f.history = h
		f.recorder = newRecorder(h)
	}
}

// WithColumnPadding sets the padding added to computed column widths.
func WithColumnPadding(n int) Option {
	return func(f *Form) { f.padding = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) { f.logger = l }
}

// New creates a Form over engine and items.
func New(engine *selection.Engine, items *worklist.Store, opts ...Option) *Form {
	f := &Form{
		engine:  engine,
		items:   items,
		padding: sheet.DefaultColumnPadding,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Catalog returns the catalog the form selects from.
func (f *Form) Catalog() *catalog.Catalog {
	return f.engine.Catalog()
}

// Snapshot returns the current state of the form.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Form) snapshot() Snapshot {
	s := Snapshot{
		Selection: f.state,
		Meta:      f.meta,
		Options:   f.engine.Options(f.state),
		Items:     f.items.Len(),
	}
	if f.staged != nil {
		s.StagedFile = f.staged.name
	}
	return s
}

// Select sets one level of the cascade by field name.
func (f *Form) Select(field, value string) (Snapshot, error) {
	fld, err := selection.ParseField(field)
	if err != nil {
		return Snapshot{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := f.engine.Select(f.state, fld, value)
	if err != nil {
		return Snapshot{}, err
	}
	f.state = next
	return f.snapshot(), nil
}

// SetMeta replaces the operator metadata.
func (f *Form) SetMeta(meta worklist.Meta) Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta = meta
	return f.snapshot()
}

// Reset clears the selection and metadata.
func (f *Form) Reset() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearSelection()
	return f.snapshot()
}

func (f *Form) clearSelection() {
	f.state = selection.State{}
	f.meta = worklist.Meta{}
}

// Add appends the current selection to the worklist. The record the
// selection resolves to is used as is; an unresolved selection appends an
// entry carrying only the metadata and spare type. On success the
// selection and metadata are cleared.
func (f *Form) Add(ctx context.Context) (worklist.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, _ := f.engine.Resolve(f.state)
	e, err := f.items.Append(ctx, f.meta, f.state.Spare, rec)
	metrics.RecordItem("append", f.items.Len(), err)
	if err != nil {
		return worklist.Entry{}, err
	}

	f.logger.Info("item added", "asset_tag", e.AssetTag, "spare", e.Spare, "items", f.items.Len())
	f.clearSelection()
	return e, nil
}

// Items returns the worklist.
func (f *Form) Items() []worklist.Entry {
	return f.items.Entries()
}

// Delete removes the entry at index i. Out of range reports false.
func (f *Form) Delete(ctx context.Context, i int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ok, err := f.items.DeleteAt(ctx, i)
	if ok || err != nil {
		metrics.RecordItem("delete", f.items.Len(), err)
	}
	return ok, err
}

// ResetAll empties the worklist and clears the asset tag.
func (f *Form) ResetAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.items.ResetAll(ctx)
	metrics.RecordItem("reset", 0, err)
	if err != nil {
		return err
	}
	f.meta.AssetTag = ""
	f.logger.Info("worklist reset")
	return nil
}

// Export renders the worklist as a new spreadsheet.
func (f *Form) Export(ctx context.Context) (File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.items.Entries()
	start := time.Now()
	data, err := sheet.ExportWorkbook(entries, f.padding)
	metrics.RecordSheet(storage.KindExport, 0, time.Since(start), err)
	if err != nil {
		return File{}, fmt.Errorf("exporting worklist: %w", err)
	}

	out := File{Name: sheet.ExportFilename, Data: data, Rows: len(entries)}
	f.record(ctx, storage.KindExport, out)
	return out, nil
}

// StageFile holds an uploaded spreadsheet for the next Merge.
func (f *Form) StageFile(name string, data []byte) error {
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return fmt.Errorf("%w: %q", ErrUnsupportedFile, name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged = &staged{name: name, data: data}
	return nil
}

// ClearFile drops the staged spreadsheet.
func (f *Form) ClearFile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged = nil
}

// Merge appends the worklist to the staged spreadsheet, skipping entries
// the sheet already has. The staged file is dropped on success and kept
// on failure so the operator can retry.
func (f *Form) Merge(ctx context.Context) (File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.staged == nil {
		return File{}, ErrNoFile
	}

	start := time.Now()
	data, res, err := sheet.MergeWorkbook(bytes.NewReader(f.staged.data), f.items.Entries(), f.padding)
	metrics.RecordSheet(storage.KindMerge, res.Duplicates, time.Since(start), err)
	if err != nil {
		return File{}, fmt.Errorf("merging into %s: %w", f.staged.name, err)
	}

	f.logger.Info("worklist merged",
		"file", f.staged.name,
		"appended", res.Appended,
		"duplicates", res.Duplicates,
	)
	f.staged = nil

	out := File{Name: sheet.MergeFilename, Data: data, Rows: res.Appended, Merged: res}
	f.record(ctx, storage.KindMerge, out)
	return out, nil
}

// History lists produced spreadsheets, newest first. A form without a
// history store returns an empty list.
func (f *Form) History(ctx context.Context, limit, offset int) ([]storage.ExportRecord, error) {
	if f.history == nil {
		return []storage.ExportRecord{}, nil
	}
	return f.history.ListExports(ctx, limit, offset)
}

// HistoryEntry returns one produced spreadsheet by id.
func (f *Form) HistoryEntry(ctx context.Context, id string) (storage.ExportRecord, error) {
	if f.history == nil {
		return storage.ExportRecord{}, storage.ErrNotFound
	}
	return f.history.GetExport(ctx, id)
}

func (f *Form) record(ctx context.Context, kind string, out File) {
	if f.recorder == nil {
		return
	}
	if err := f.recorder.record(ctx, kind, out); err != nil {
		f.logger.Warn("failed to record export history", "kind", kind, "error", err)
	}
}

