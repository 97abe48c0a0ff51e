package worklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/kalambet/sparelist/internal/storage"
)

// StorageKey names the persisted slot holding the worklist.
const StorageKey = "addedItems"

// KV is the key-value slot API the worklist needs.
// Implemented by storage.Store.
type KV interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
}

// KVPersister stores the worklist as a JSON array under StorageKey.
type KVPersister struct {
	kv KV
}

// NewKVPersister creates a Persister over kv.
func NewKVPersister(kv KV) *KVPersister {
	return &KVPersister{kv: kv}
}

func (p *KVPersister) Load(ctx context.Context) ([]Entry, error) {
	raw, err := p.kv.GetValue(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", StorageKey, err)
	}
	return entries, nil
}

func (p *KVPersister) Save(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", StorageKey, err)
	}
	return p.kv.SetValue(ctx, StorageKey, string(b))
}

func (p *KVPersister) Clear(ctx context.Context) error {
	return p.kv.DeleteValue(ctx, StorageKey)
}

// MemoryPersister keeps the worklist in process memory. Err, when set, is
// returned from every call.
type MemoryPersister struct {
	mu      sync.Mutex
	entries []Entry
	saved   bool
	Err     error
	Saves   int
}

func (m *MemoryPersister) Load(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return slices.Clone(m.entries), nil
}

func (m *MemoryPersister) Save(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.entries = slices.Clone(entries)
	m.saved = true
	m.Saves++
	return nil
}

func (m *MemoryPersister) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.entries = nil
	m.saved = false
	return nil
}

// Stored reports the persisted entries and whether the slot exists.
func (m *MemoryPersister) Stored() ([]Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries), m.saved
}
