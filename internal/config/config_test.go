package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "zapgate.toml")

	cfg := Default()
	cfg.Instance = "work"
	cfg.HTTPAddr = "127.0.0.1:9999"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Instance != "work" {
		t.Errorf("Instance = %q, want %q", loaded.Instance, "work")
	}
	if loaded.HTTPAddr != "127.0.0.1:9999" {
		t.Errorf("HTTPAddr = %q, want 127.0.0.1:9999", loaded.HTTPAddr)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Instance != "main" {
		t.Errorf("Instance = %q, want main", cfg.Instance)
	}
	if cfg.OracleTimeout.Std() != 5*time.Second {
		t.Errorf("OracleTimeout = %v, want 5s", cfg.OracleTimeout.Std())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ZAPGATE_INSTANCE", "env-instance")
	t.Setenv("ZAPGATE_ORACLE_TIMEOUT", "2s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Instance != "env-instance" {
		t.Errorf("Instance = %q, want env-instance", cfg.Instance)
	}
	if cfg.OracleTimeout.Std() != 2*time.Second {
		t.Errorf("OracleTimeout = %v, want 2s", cfg.OracleTimeout.Std())
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "zapgate.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
