package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidStoreType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Type = "postgres"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unimplemented store type")
	}
	if !strings.Contains(err.Error(), "Config.Store.Type") {
		t.Errorf("Expected error to name the field, got: %v", err)
	}
}

func TestValidate_InvalidSnapshotFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Snapshot.Format = "protobuf"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for unknown snapshot format")
	}
}

func TestValidate_BadgerRequiresPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Type = "badger"
	cfg.Store.Badger["db_path"] = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for empty badger db_path")
	}
	if !strings.Contains(err.Error(), "db_path") {
		t.Errorf("Expected db_path error, got: %v", err)
	}

	cfg.Store.Badger["in_memory"] = true
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected in-memory badger without path to be valid, got: %v", err)
	}
}

func TestValidate_SQLiteRequiresPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Type = "sqlite"
	delete(cfg.Store.SQLite, "path")

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for missing sqlite path")
	}
}

func TestValidate_S3SnapshotRequiresBucketAndRegion(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Snapshot.Target = "s3"

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("Expected bucket error, got: %v", err)
	}

	cfg.Snapshot.S3["bucket"] = "backups"
	err = Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "region") {
		t.Fatalf("Expected region error, got: %v", err)
	}

	cfg.Snapshot.S3["region"] = "eu-west-1"
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid S3 snapshot config, got: %v", err)
	}
}
