package form

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/sparelist/internal/storage"
)

type recorder struct {
	store HistoryStore
	now   func() time.Time
}

func newRecorder(store HistoryStore) *recorder {
	return &recorder{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (r *recorder) record(ctx context.Context, kind string, out File) error {
	return r.store.SaveExport(ctx, storage.ExportRecord{
		ID:         uuid.New().String(),
		Kind:       kind,
		Filename:   out.Name,
		Rows:       out.Rows,
		Duplicates: out.Merged.Duplicates,
		CreatedAt:  r.now(),
	})
}
