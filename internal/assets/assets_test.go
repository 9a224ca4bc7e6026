package assets

import (
	"testing"
)

func TestGetSchema(t *testing.T) {
	data, ok := GetSchema("embedded_schemas/mindbender/version-1.0.json")
	if !ok {
		t.Fatal("version schema not embedded")
	}
	if len(data) == 0 {
		t.Error("Schema file is empty")
	}
}

func TestRecordSchemasOrder(t *testing.T) {
	infos := RecordSchemas()
	if len(infos) != len(recordSchemas) {
		t.Fatalf("expected %d record schemas, got %d", len(recordSchemas), len(infos))
	}
	// representation must precede version, which $refs it
	if infos[0].Name != "representation-1.0" || infos[1].Name != "version-1.0" {
		t.Errorf("unexpected order: %s, %s", infos[0].Name, infos[1].Name)
	}
	for _, info := range infos {
		if info.Draft != "Draft-07" {
			t.Errorf("%s: expected Draft-07, got %s", info.Name, info.Draft)
		}
		if info.ID != IDPrefix+info.Name {
			t.Errorf("%s: unexpected id %s", info.Name, info.ID)
		}
	}
}

func TestConfigSchema(t *testing.T) {
	info := ConfigSchema()
	if info.Name != ConfigSchemaName || info.Draft != "Draft-07" {
		t.Errorf("unexpected config schema info: %+v", info)
	}
	if _, ok := GetSchema(info.Path); !ok {
		t.Errorf("config schema %s not embedded", info.Path)
	}
}

func TestGetSchemaMissing(t *testing.T) {
	if _, ok := GetSchema("embedded_schemas/mindbender/nope.json"); ok {
		t.Error("expected missing schema to report !ok")
	}
}
