package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a default configuration file to the default location.
//
// Returns the path of the written file. Fails if a file already exists and
// force is false.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Config may hold S3 credentials
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configSection is one top-level block of the generated file.
type configSection struct {
	key     string
	comment []string
	value   any
}

// generateYAMLWithComments renders cfg as YAML with a comment block above
// each top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []configSection{
		{
			key: "logging",
			comment: []string{
				"Logging configuration",
				"level: DEBUG, INFO, WARN, ERROR",
				"format: text, json",
				"output: stdout, stderr or a file path",
			},
			value: cfg.Logging,
		},
		{
			key: "store",
			comment: []string{
				"Record store configuration",
				"type: memory, badger, sqlite",
				"Only the section matching type is used.",
			},
			value: cfg.Store,
		},
		{
			key: "metrics",
			comment: []string{
				"Prometheus counters for registry operations",
			},
			value: cfg.Metrics,
		},
		{
			key: "snapshot",
			comment: []string{
				"Snapshot export/import",
				"target: file, s3",
				"format: json, yaml, xdr",
				"s3 accepts region, bucket, key_prefix, endpoint,",
				"access_key_id, secret_access_key and max_retries.",
			},
			value: cfg.Snapshot,
		},
	}

	var b strings.Builder
	b.WriteString("# DittoReg Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Every value can be overridden with a DITTOREG_* environment variable,\n")
	b.WriteString("# e.g. DITTOREG_LOGGING_LEVEL=DEBUG.\n")

	for _, section := range sections {
		b.WriteString("\n")
		for _, line := range section.comment {
			b.WriteString("# " + line + "\n")
		}

		out, err := yaml.Marshal(map[string]any{section.key: section.value})
		if err != nil {
			return "", fmt.Errorf("failed to render %s section: %w", section.key, err)
		}
		b.Write(out)
	}

	return b.String(), nil
}
