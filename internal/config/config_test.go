package config

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

// mapBackend is an in-memory ConfigBackend.
type mapBackend struct {
	strs map[string]string
	ints map[string]int
	err  error
}

func newMapBackend() *mapBackend {
	return &mapBackend{strs: map[string]string{}, ints: map[string]int{}}
}

func (m *mapBackend) GetString(key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.strs[key]
	return v, ok, nil
}

func (m *mapBackend) GetInt(key string) (int, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *mapBackend) SetString(key, val string) error { m.strs[key] = val; return nil }
func (m *mapBackend) SetInt(key string, val int) error { m.ints[key] = val; return nil }
func (m *mapBackend) Delete(key string) error {
	delete(m.strs, key)
	delete(m.ints, key)
	return nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Server.MaxConns != 64 {
		t.Errorf("Server.MaxConns = %d, want 64", cfg.Server.MaxConns)
	}
	if cfg.Export.ColumnPadding != 2 {
		t.Errorf("Export.ColumnPadding = %d, want 2", cfg.Export.ColumnPadding)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Catalog.Path != "" {
		t.Errorf("Catalog.Path = %q, want empty", cfg.Catalog.Path)
	}
	if cfg.Selection.AutoSchedule {
		t.Error("Selection.AutoSchedule enabled by default")
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMapBackend()
	b.ints["server.port"] = 5000
	b.ints["export.column_padding"] = 4
	b.strs["catalog.path"] = "/srv/catalog.json"
	b.strs["selection.auto_schedule"] = "true"
	b.strs["storage.data_dir"] = "/tmp/sparelist-test"

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Export.ColumnPadding != 4 {
		t.Errorf("Export.ColumnPadding = %d, want 4", cfg.Export.ColumnPadding)
	}
	if cfg.Catalog.Path != "/srv/catalog.json" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if !cfg.Selection.AutoSchedule {
		t.Error("Selection.AutoSchedule not applied")
	}
	if cfg.Storage.DataDir != "/tmp/sparelist-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)

	b := newMapBackend()
	b.ints["server.port"] = 5000
	t.Setenv("SPARELIST_SERVER_PORT", "6000")
	t.Setenv("SPARELIST_LOG_LEVEL", "debug")
	t.Setenv("SPARELIST_SELECTION_AUTO_SCHEDULE", "1")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if !cfg.Selection.AutoSchedule {
		t.Error("Selection.AutoSchedule not overridden")
	}
}

func TestEnvOverride_InvalidKeepsValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPARELIST_SERVER_MAX_CONNS", "many")

	cfg, err := loadWith(newMapBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.MaxConns != 64 {
		t.Errorf("Server.MaxConns = %d, want default 64", cfg.Server.MaxConns)
	}
}

func TestBackendError(t *testing.T) {
	clearEnv(t)

	b := newMapBackend()
	b.err = errors.New("disk on fire")

	_, err := loadWith(b)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("error = %q, want it to wrap the backend error", err)
	}
}

func TestSetKey(t *testing.T) {
	b := newMapBackend()

	if err := setKeyWith(b, "server.port", "4200"); err != nil {
		t.Fatalf("setting server.port: %v", err)
	}
	if b.ints["server.port"] != 4200 {
		t.Errorf("server.port = %d, want 4200", b.ints["server.port"])
	}

	if err := setKeyWith(b, "selection.auto_schedule", "yes"); err == nil {
		t.Error("expected error for invalid boolean")
	}
	if err := setKeyWith(b, "selection.auto_schedule", "TRUE"); err != nil {
		t.Fatalf("setting selection.auto_schedule: %v", err)
	}
	if b.strs["selection.auto_schedule"] != "true" {
		t.Errorf("selection.auto_schedule = %q, want true", b.strs["selection.auto_schedule"])
	}

	if err := setKeyWith(b, "server.port", "abc"); err == nil {
		t.Error("expected error for invalid integer")
	}
	if err := setKeyWith(b, "nope.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestShowAll(t *testing.T) {
	cfg := defaults()
	cfg.Catalog.Path = "/x.json"

	infos := ShowAll(cfg)
	if len(infos) != len(ValidKeys()) {
		t.Fatalf("ShowAll returned %d keys, want %d", len(infos), len(ValidKeys()))
	}
	for _, info := range infos {
		if !strings.HasPrefix(info.EnvVar, "SPARELIST_") {
			t.Errorf("%s env = %q", info.Key, info.EnvVar)
		}
		if info.Key == "catalog.path" && info.Value != "/x.json" {
			t.Errorf("catalog.path = %q", info.Value)
		}
	}
	if !slices.Contains(ValidKeys(), "export.column_padding") {
		t.Error("export.column_padding missing from ValidKeys")
	}
}
