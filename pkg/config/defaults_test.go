package config

import (
	"path/filepath"
	"testing"
)

func TestApplyDefaults_Empty(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Store.Type != "badger" {
		t.Errorf("Expected default store type 'badger', got %q", cfg.Store.Type)
	}
	if cfg.Store.Memory == nil || cfg.Store.Badger == nil || cfg.Store.SQLite == nil {
		t.Fatal("Expected store option maps to be initialized")
	}
	if cfg.Snapshot.File == nil || cfg.Snapshot.S3 == nil {
		t.Fatal("Expected snapshot option maps to be initialized")
	}
}

func TestApplyDefaults_DataDir(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)

	cfg := GetDefaultConfig()

	want := filepath.Join(dataDir, "dittoreg", "badger")
	if cfg.Store.Badger["db_path"] != want {
		t.Errorf("Expected badger db_path %q, got %v", want, cfg.Store.Badger["db_path"])
	}
	want = filepath.Join(dataDir, "dittoreg", "snapshots")
	if cfg.Snapshot.File["dir"] != want {
		t.Errorf("Expected snapshot dir %q, got %v", want, cfg.Snapshot.File["dir"])
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "warn", Format: "json", Output: "stdout"},
		Store: StoreConfig{
			Type:   "sqlite",
			SQLite: map[string]any{"path": "/data/registry.db", "busy_timeout": "1s"},
		},
		Snapshot: SnapshotConfig{Target: "s3", Format: "YAML"},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level normalized to 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Output != "stdout" {
		t.Errorf("Expected explicit logging values preserved, got %+v", cfg.Logging)
	}
	if cfg.Store.SQLite["path"] != "/data/registry.db" || cfg.Store.SQLite["busy_timeout"] != "1s" {
		t.Errorf("Expected explicit sqlite options preserved, got %v", cfg.Store.SQLite)
	}
	if cfg.Snapshot.Target != "s3" || cfg.Snapshot.Format != "yaml" {
		t.Errorf("Expected s3/yaml snapshot, got %s/%s", cfg.Snapshot.Target, cfg.Snapshot.Format)
	}
}
