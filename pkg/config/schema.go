package config

import (
	"fmt"
	"strings"

	"github.com/pyblish/pyblish-minbender/internal/assets"
	"github.com/pyblish/pyblish-minbender/pkg/safeio"
	"github.com/pyblish/pyblish-minbender/pkg/schema"
)

const maxConfigSize = 1 << 20

// ValidationFailure reports a configuration file that does not match the config schema.
type ValidationFailure struct {
	File   string
	Errors []schema.ValidationError
}

func (f *ValidationFailure) Error() string {
	lines := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		lines = append(lines, "  "+e.String())
	}
	return fmt.Sprintf("configuration validation failed for %s:\n%s", f.File, strings.Join(lines, "\n"))
}

// ValidateConfig validates configuration bytes (YAML or JSON) against the embedded config schema.
func ValidateConfig(configData []byte) ([]schema.ValidationError, error) {
	validator, err := schema.GetValidator(assets.ConfigSchemaName)
	if err != nil {
		return nil, err
	}
	res, err := validator.ValidateBytes(configData)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return res.Errors, nil
}

// ValidateConfigFile reads and validates a configuration file.
func ValidateConfigFile(path string) error {
	data, clean, err := safeio.ReadFileLimited(path, maxConfigSize)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	errs, err := ValidateConfig(data)
	if err != nil {
		return fmt.Errorf("%s: %w", clean, err)
	}
	if len(errs) > 0 {
		return &ValidationFailure{File: clean, Errors: errs}
	}
	return nil
}
