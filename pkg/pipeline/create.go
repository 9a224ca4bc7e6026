package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pyblish/pyblish-minbender/pkg/record"
	"github.com/pyblish/pyblish-minbender/pkg/schema"
)

// Exists reports whether a node name is taken in the host scene.
type Exists func(name string) bool

func (e Exists) check(name string) bool {
	return e != nil && e(name)
}

// InstanceSetName is the name of the set holding an instance's members.
func InstanceSetName(name string) string {
	return name + "_SET"
}

// Create builds the instance imprinted on a new "<name>_SET": default data
// merged with the family's data, with {name} and {family} resolved.
func (r *Registry) Create(name, family string, exists Exists) (record.Instance, error) {
	fam, ok := r.Family(family)
	if !ok {
		return record.Instance{}, fmt.Errorf("%q is %w", family, ErrUnknownFamily)
	}
	if set := InstanceSetName(name); exists.check(set) {
		return record.Instance{}, fmt.Errorf("%q %w", set, ErrInstanceExists)
	}

	values := map[string]string{"name": name, "family": fam.Name}
	data := make(map[string]interface{})
	for _, entry := range append(r.Data(), fam.Data...) {
		value := entry.Value
		if s, ok := value.(string); ok {
			resolved, err := record.Expand(s, values)
			if err != nil {
				if errors.Is(err, record.ErrUnknownPlaceholder) {
					return record.Instance{}, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, entry.Key, err)
				}
				return record.Instance{}, fmt.Errorf("data %s: %w", entry.Key, err)
			}
			value = resolved
		}
		data[entry.Key] = value
	}

	inst := record.Instance{Schema: record.SchemaInstance}
	inst.ID, _ = data["id"].(string)
	inst.Name, _ = data["name"].(string)
	inst.Subset, _ = data["subset"].(string)
	inst.Family, _ = data["family"].(string)
	for _, k := range []string{"id", "name", "subset", "family", "schema"} {
		delete(data, k)
	}
	if len(data) > 0 {
		inst.Data = data
	}

	if err := validateRecord(inst, "instance"); err != nil {
		return record.Instance{}, err
	}
	return inst, nil
}

// validateRecord checks a produced record against its embedded schema.
func validateRecord(v interface{}, name string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	doc, _, err := schema.Decode(b, schema.FormatJSON)
	if err != nil {
		return err
	}
	res, err := schema.Validate(doc, name)
	if err != nil {
		return err
	}
	if !res.Valid {
		return &RecordError{Schema: res.Schema, Errors: res.Errors}
	}
	return nil
}

// RecordError lists the schema violations of a produced record.
type RecordError struct {
	Schema string
	Errors []schema.ValidationError
}

func (e *RecordError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s: %v", e.Schema, ErrInvalidRecord)
	}
	return fmt.Sprintf("%s: %v: %s", e.Schema, ErrInvalidRecord, e.Errors[0].String())
}

func (e *RecordError) Unwrap() error { return ErrInvalidRecord }
