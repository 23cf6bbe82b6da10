package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	switch cfg.Store.Type {
	case "badger":
		inMemory, _ := cfg.Store.Badger["in_memory"].(bool)
		if !inMemory && isEmpty(cfg.Store.Badger["db_path"]) {
			return fmt.Errorf("store.badger: db_path is required unless in_memory is set")
		}
	case "sqlite":
		if isEmpty(cfg.Store.SQLite["path"]) {
			return fmt.Errorf("store.sqlite: path is required")
		}
	}

	switch cfg.Snapshot.Target {
	case "file":
		if isEmpty(cfg.Snapshot.File["dir"]) {
			return fmt.Errorf("snapshot.file: dir is required")
		}
	case "s3":
		if isEmpty(cfg.Snapshot.S3["bucket"]) {
			return fmt.Errorf("snapshot.s3: bucket is required")
		}
		if isEmpty(cfg.Snapshot.S3["region"]) {
			return fmt.Errorf("snapshot.s3: region is required")
		}
	}

	return nil
}

// isEmpty reports whether an option map value is missing or an empty string.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
