package schema

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a record serialization.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks a format from a file extension; unknown extensions fall back to auto-detection.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatAuto
	}
}

// Decode parses record bytes into generic data. FormatAuto tries YAML first, then JSON.
// It returns the format that succeeded.
func Decode(dataBytes []byte, format Format) (interface{}, Format, error) {
	var data interface{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(dataBytes, &data); err != nil {
			return nil, format, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return data, format, nil
	case FormatYAML:
		if err := yaml.Unmarshal(dataBytes, &data); err != nil {
			return nil, format, fmt.Errorf("failed to parse YAML: %w", err)
		}
		return data, format, nil
	case FormatTOML:
		var doc map[string]interface{}
		if err := toml.Unmarshal(dataBytes, &doc); err != nil {
			return nil, format, fmt.Errorf("failed to parse TOML: %w", err)
		}
		return doc, format, nil
	case FormatAuto:
		yamlErr := yaml.Unmarshal(dataBytes, &data)
		if yamlErr == nil {
			return data, FormatYAML, nil
		}
		data = nil
		if err := json.Unmarshal(dataBytes, &data); err != nil {
			return nil, FormatAuto, fmt.Errorf("failed to parse data bytes (tried YAML then JSON): YAML err: %v, JSON err: %w", yamlErr, err)
		}
		return data, FormatJSON, nil
	default:
		return nil, format, fmt.Errorf("unsupported format: %s", format)
	}
}
