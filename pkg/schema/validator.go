package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pyblish/pyblish-minbender/internal/assets"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Schema string            `json:"schema,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationContext provides additional context for validation errors.
type ValidationContext struct {
	SourceFile string `json:"source_file,omitempty"`
	SourceType string `json:"source_type,omitempty"` // "file", "json", "yaml", "toml"
	Severity   string `json:"severity,omitempty"`
}

// ValidationError is one (field-path, violated-rule) pair.
type ValidationError struct {
	Path    string            `json:"path"`
	Rule    string            `json:"rule"`
	Message string            `json:"message"`
	Context ValidationContext `json:"context,omitempty"`
}

// String renders the error as "path: message".
func (e ValidationError) String() string {
	if e.Path == "" || e.Path == rootPath {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

const (
	rootPath    = "root"
	contextRoot = "(root)"
)

// Validator wraps a compiled schema for repeated validation.
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Name returns the versioned schema name, e.g. version-1.0.
func (v *Validator) Name() string { return v.name }

// registry caches compiled schemas by versioned name; aliases maps short and full ids onto them.
var (
	schemaRegistry map[string]*gojsonschema.Schema
	schemaInfos    map[string]assets.SchemaInfo
	schemaAliases  map[string]string
	registryErr    error
	regMu          sync.RWMutex
)

func init() {
	initRegistry()
}

func initRegistry() {
	regMu.Lock()
	defer regMu.Unlock()
	schemaRegistry = make(map[string]*gojsonschema.Schema)
	schemaInfos = make(map[string]assets.SchemaInfo)
	schemaAliases = make(map[string]string)
	registryErr = compileKnownSchemas()
}

type normalizedSchema struct {
	info assets.SchemaInfo
	id   string
	doc  []byte
}

// compileKnownSchemas compiles every embedded record schema with the others preloaded,
// so relative $refs between record shapes resolve without touching the network.
func compileKnownSchemas() error {
	var docs []normalizedSchema
	for _, info := range assets.RecordSchemas() {
		raw, ok := assets.GetSchema(info.Path)
		if !ok {
			return fmt.Errorf("embedded schema %s missing", info.Path)
		}
		id, norm, err := extractAndNormalizeSchema(raw, true)
		if err != nil {
			return fmt.Errorf("normalize %s: %w", info.Name, err)
		}
		docs = append(docs, normalizedSchema{info: info, id: id, doc: norm})
	}

	for i, root := range docs {
		loader := gojsonschema.NewSchemaLoader()
		loader.AutoDetect = false
		for j, dep := range docs {
			if i == j || dep.id == "" {
				continue
			}
			if err := loader.AddSchema(dep.id, gojsonschema.NewBytesLoader(dep.doc)); err != nil {
				return fmt.Errorf("register %s for %s: %w", dep.info.Name, root.info.Name, err)
			}
		}
		sch, err := loader.Compile(gojsonschema.NewBytesLoader(root.doc))
		if err != nil {
			return fmt.Errorf("compile %s: %w", root.info.Name, err)
		}
		register(root.info, sch)
	}

	cfg := assets.ConfigSchema()
	raw, ok := assets.GetSchema(cfg.Path)
	if !ok {
		return fmt.Errorf("embedded schema %s missing", cfg.Path)
	}
	sch, err := compileSchemaBytes(raw)
	if err != nil {
		return fmt.Errorf("compile %s: %w", cfg.Name, err)
	}
	register(cfg, sch)
	return nil
}

// register must be called with regMu held.
func register(info assets.SchemaInfo, sch *gojsonschema.Schema) {
	schemaRegistry[info.Name] = sch
	schemaInfos[info.Name] = info
	schemaAliases[info.Name] = info.Name
	schemaAliases[info.ID] = info.Name
	if short := shortName(info.Name); short != info.Name {
		schemaAliases[short] = info.Name
	}
}

// shortName strips the trailing "-<major>.<minor>" revision.
func shortName(name string) string {
	if idx := strings.LastIndex(name, "-"); idx > 0 {
		rev := name[idx+1:]
		if rev != "" && strings.Trim(rev, "0123456789.") == "" {
			return name[:idx]
		}
	}
	return name
}

func compileSchemaBytes(schemaBytes []byte) (*gojsonschema.Schema, error) {
	_, norm, err := extractAndNormalizeSchema(schemaBytes, true)
	if err != nil {
		return nil, err
	}
	sch, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(norm))
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return sch, nil
}

func extractAndNormalizeSchema(schemaBytes []byte, stripSchema bool) (string, []byte, error) {
	var tmp any
	if err := yaml.Unmarshal(schemaBytes, &tmp); err != nil {
		if err := json.Unmarshal(schemaBytes, &tmp); err != nil {
			return "", nil, fmt.Errorf("invalid schema format (must be valid YAML or JSON): %w", err)
		}
	}

	m, ok := tmp.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("schema document must be an object")
	}
	if stripSchema {
		delete(m, "$schema")
	}
	id, _ := m["$id"].(string)
	jb, err := json.Marshal(m)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode schema to JSON: %w", err)
	}
	return strings.TrimSpace(id), jb, nil
}

// ResolveName maps a short name ("version"), versioned name ("version-1.0")
// or record identifier ("pyblish-mindbender:version-1.0") to the registered name.
func ResolveName(name string) (string, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	resolved, ok := schemaAliases[strings.TrimSpace(name)]
	return resolved, ok
}

// GetValidator returns a validator for a named embedded schema.
func GetValidator(name string) (*Validator, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	if registryErr != nil {
		return nil, fmt.Errorf("schema registry unavailable: %w", registryErr)
	}
	resolved, ok := schemaAliases[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("schema %s not found", name)
	}
	return &Validator{name: resolved, schema: schemaRegistry[resolved]}, nil
}

// Validate applies the compiled schema to the provided data structure.
func (v *Validator) Validate(data interface{}) (*Result, error) {
	if v == nil || v.schema == nil {
		return nil, fmt.Errorf("validator not initialised")
	}
	res, err := validateWithCompiled(v.schema, data)
	if err != nil {
		return nil, err
	}
	res.Schema = v.name
	return res, nil
}

// ValidateBytes decodes YAML/JSON bytes and validates them against the compiled schema.
func (v *Validator) ValidateBytes(dataBytes []byte) (*Result, error) {
	data, _, err := Decode(dataBytes, FormatAuto)
	if err != nil {
		return nil, err
	}
	return v.Validate(data)
}

func validateWithCompiled(sch *gojsonschema.Schema, data interface{}) (*Result, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode data to JSON: %w", err)
	}
	result, err := sch.Validate(gojsonschema.NewBytesLoader(dataJSON))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	res := &Result{Valid: result.Valid()}
	if !result.Valid() {
		res.Errors = convertErrors(result.Errors())
	}
	return res, nil
}

// convertErrors flattens gojsonschema errors into field paths. A missing required
// property is attributed to the property itself rather than its parent object.
func convertErrors(errs []gojsonschema.ResultError) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, verr := range errs {
		path := verr.Field()
		if path == contextRoot {
			path = ""
		}
		if verr.Type() == "required" {
			if prop, ok := verr.Details()["property"].(string); ok && prop != "" {
				if path != prop && !strings.HasSuffix(path, "."+prop) {
					path = joinPath(path, prop)
				}
			}
		}
		if path == "" {
			path = rootPath
		}
		out = append(out, ValidationError{
			Path:    path,
			Rule:    verr.Type(),
			Message: verr.Description(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// Validate validates data against the named embedded schema.
func Validate(data interface{}, name string) (*Result, error) {
	validator, err := GetValidator(name)
	if err != nil {
		return nil, err
	}
	return validator.Validate(data)
}

// ValidateRecord validates data against the schema named by its own "schema" field.
func ValidateRecord(data interface{}) (*Result, error) {
	name, err := DetectSchema(data)
	if err != nil {
		return nil, err
	}
	return Validate(data, name)
}

// DetectSchema reads the "schema" field of a decoded record and resolves it to a registered name.
func DetectSchema(data interface{}) (string, error) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("record is not an object")
	}
	raw, ok := m["schema"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("record has no schema field")
	}
	name, ok := ResolveName(raw)
	if !ok {
		return "", fmt.Errorf("record schema %q is not known", raw)
	}
	return name, nil
}

// Schemas lists the registered embedded schemas.
func Schemas() []assets.SchemaInfo {
	regMu.RLock()
	defer regMu.RUnlock()
	infos := make([]assets.SchemaInfo, 0, len(schemaInfos))
	for _, info := range schemaInfos {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// SchemaBytes returns the raw embedded text of a named schema.
func SchemaBytes(name string) ([]byte, assets.SchemaInfo, error) {
	resolved, ok := ResolveName(name)
	if !ok {
		return nil, assets.SchemaInfo{}, fmt.Errorf("schema %s not found", name)
	}
	regMu.RLock()
	info := schemaInfos[resolved]
	regMu.RUnlock()
	data, ok := assets.GetSchema(info.Path)
	if !ok {
		return nil, info, fmt.Errorf("schema %s not embedded", resolved)
	}
	return data, info, nil
}
