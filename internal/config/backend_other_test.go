//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparelist", "config.json")

	b := newFileBackend(path)
	if err := b.SetInt("server.port", 4300); err != nil {
		t.Fatal(err)
	}
	if err := b.SetString("selection.auto_schedule", "true"); err != nil {
		t.Fatal(err)
	}

	reopened := newFileBackend(path)
	port, ok, err := reopened.GetInt("server.port")
	if err != nil || !ok || port != 4300 {
		t.Errorf("server.port = %d, %v, %v", port, ok, err)
	}

	t.Setenv("SPARELIST_SERVER_PORT", "")
	t.Setenv("SPARELIST_SELECTION_AUTO_SCHEDULE", "")
	cfg, err := loadWith(reopened)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 4300 || !cfg.Selection.AutoSchedule {
		t.Errorf("cfg = %+v", cfg)
	}

	if err := reopened.Delete("server.port"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := newFileBackend(path).GetInt("server.port"); ok {
		t.Error("server.port still present after Delete")
	}
}

func TestFileBackend_CorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := newFileBackend(path)
	if _, ok, _ := b.GetString("log.level"); ok {
		t.Error("corrupt file produced values")
	}
}
