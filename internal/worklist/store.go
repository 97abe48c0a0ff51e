package worklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/kalambet/sparelist/internal/catalog"
)

// ErrMissingAssetTag is returned by Append when no asset tag was supplied.
var ErrMissingAssetTag = errors.New("asset tag is required")

// Persister mirrors the worklist into durable storage.
type Persister interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
	Clear(ctx context.Context) error
}

// Store owns the ordered worklist. Every mutation is persisted before it
// becomes visible in memory, so a failed write leaves both sides unchanged.
type Store struct {
	persister Persister
	logger    *slog.Logger

	mu      sync.RWMutex
	entries []Entry
}

// NewStore creates an empty Store backed by p. Call LoadPersisted to
// restore a previous session.
func NewStore(p Persister) *Store {
	return &Store{
		persister: p,
		logger:    slog.Default(),
	}
}

// LoadPersisted replaces the in-memory list with the persisted one.
// A missing slot yields an empty list.
func (s *Store) LoadPersisted(ctx context.Context) error {
	entries, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading worklist: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.logger.Debug("worklist restored", "entries", len(entries))
	return nil
}

// Append adds an entry built from meta and rec to the end of the list.
func (s *Store) Append(ctx context.Context, meta Meta, spare string, rec catalog.Record) (Entry, error) {
	if meta.AssetTag == "" {
		return Entry{}, ErrMissingAssetTag
	}
	e := NewEntry(meta, spare, rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clone(s.entries), e)
	if err := s.persister.Save(ctx, next); err != nil {
		return Entry{}, fmt.Errorf("persisting worklist: %w", err)
	}
	s.entries = next
	return e, nil
}

// DeleteAt removes the entry at index i. An out-of-range index is a no-op
// and reports false.
func (s *Store) DeleteAt(ctx context.Context, i int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.entries) {
		return false, nil
	}

	next := slices.Delete(slices.Clone(s.entries), i, i+1)
	if err := s.persister.Save(ctx, next); err != nil {
		return false, fmt.Errorf("persisting worklist: %w", err)
	}
	s.entries = next
	return true, nil
}

// ResetAll empties the list and removes the persisted slot.
func (s *Store) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persister.Clear(ctx); err != nil {
		return fmt.Errorf("clearing worklist: %w", err)
	}
	s.entries = nil
	return nil
}

// Entries returns a copy of the worklist in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
