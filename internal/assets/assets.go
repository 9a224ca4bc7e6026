package assets

import (
	"embed"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed embedded_schemas
var schemaFS embed.FS

// SchemaInfo describes one embedded schema.
type SchemaInfo struct {
	Name  string `json:"name"`  // e.g. version-1.0
	ID    string `json:"id"`    // e.g. pyblish-mindbender:version-1.0
	Path  string `json:"path"`  // embed path
	Draft string `json:"draft"` // detected from $schema
}

// Record schemas are listed in dependency order: each may only $ref the ones before it.
var recordSchemas = []string{
	"representation-1.0",
	"version-1.0",
	"subset-1.0",
	"asset-1.0",
	"container-1.0",
	"instance-1.0",
}

const (
	recordDir = "embedded_schemas/mindbender/"
	// ConfigSchemaName names the embedded configuration schema.
	ConfigSchemaName = "mindbender-config-1.0"
	configPath       = "embedded_schemas/config/mindbender-config-1.0.yaml"
)

// IDPrefix is prepended to a schema name to form the identifier records carry in their "schema" field.
const IDPrefix = "pyblish-mindbender:"

// GetSchema returns the embedded schema bytes by embed path.
func GetSchema(relPath string) ([]byte, bool) {
	data, err := schemaFS.ReadFile(relPath)
	return data, err == nil
}

// RecordSchemas returns the record schemas in dependency order.
func RecordSchemas() []SchemaInfo {
	infos := make([]SchemaInfo, 0, len(recordSchemas))
	for _, name := range recordSchemas {
		path := recordDir + name + ".json"
		if _, ok := GetSchema(path); !ok {
			continue
		}
		infos = append(infos, SchemaInfo{Name: name, ID: IDPrefix + name, Path: path, Draft: detectDraft(path)})
	}
	return infos
}

// ConfigSchema returns the configuration schema descriptor.
func ConfigSchema() SchemaInfo {
	return SchemaInfo{Name: ConfigSchemaName, ID: IDPrefix + ConfigSchemaName, Path: configPath, Draft: detectDraft(configPath)}
}

// detectDraft heuristically detects draft from schema bytes via $schema key.
func detectDraft(path string) string {
	bytes, ok := GetSchema(path)
	if !ok {
		return "Unknown"
	}
	var doc interface{}
	if err := yaml.Unmarshal(bytes, &doc); err != nil {
		if err := json.Unmarshal(bytes, &doc); err != nil {
			return "Unknown"
		}
	}
	if m, ok := doc.(map[string]interface{}); ok {
		if v, ok := m["$schema"].(string); ok {
			if strings.Contains(v, "draft-07") {
				return "Draft-07"
			}
			if strings.Contains(v, "2020-12") {
				return "Draft-2020-12"
			}
		}
	}
	return "Unknown"
}
