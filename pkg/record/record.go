// Package record defines the metadata records published for an asset:
// versions, their representations, and the subsets and assets that group them.
//
// Records are open: fields not modelled here are kept in Extra and written back
// unchanged, so decoding and re-encoding a record never loses data.
package record

import (
	"encoding/json"
	"fmt"
	"math"
)

// Schema identifiers written into the "schema" field of each record.
const (
	SchemaVersion        = "pyblish-mindbender:version-1.0"
	SchemaRepresentation = "pyblish-mindbender:representation-1.0"
	SchemaSubset         = "pyblish-mindbender:subset-1.0"
	SchemaAsset          = "pyblish-mindbender:asset-1.0"
	SchemaContainer      = "pyblish-mindbender:container-1.0"
	SchemaInstance       = "pyblish-mindbender:instance-1.0"
)

// Fixed "id" values of host-side records.
const (
	ContainerID = "pyblish.mindbender.container"
	InstanceID  = "pyblish.mindbender.instance"
)

// Version is a single, immutable point-in-time capture of an asset.
type Version struct {
	Schema          string           `json:"schema"`
	Version         int              `json:"version"`
	Path            string           `json:"path"`
	Time            string           `json:"time"`
	Author          string           `json:"author"`
	Source          string           `json:"source"`
	Families        []string         `json:"families,omitempty"`
	Comment         string           `json:"comment,omitempty"`
	Representations []Representation `json:"representations"`

	Extra map[string]interface{} `json:"-"`
}

var versionKeys = []string{"schema", "version", "path", "time", "author", "source", "families", "comment", "representations"}

// MarshalJSON writes known fields and Extra; representations is always an array.
func (v Version) MarshalJSON() ([]byte, error) {
	type plain Version
	p := plain(v)
	if p.Representations == nil {
		p.Representations = []Representation{}
	}
	return marshalWithExtra(p, v.Extra)
}

// UnmarshalJSON decodes known fields and keeps the rest in Extra.
// A whole-number float such as 1.0 is accepted for "version".
func (v *Version) UnmarshalJSON(data []byte) error {
	type plain Version
	var p struct {
		plain
		Version json.Number `json:"version"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	n, err := versionNumber(p.Version)
	if err != nil {
		return err
	}
	extra, err := splitExtra(data, versionKeys)
	if err != nil {
		return err
	}
	*v = Version(p.plain)
	v.Version = n
	v.Extra = extra
	return nil
}

// maxExactFloat bounds the integers a float64 holds exactly.
const maxExactFloat = 1 << 53

func versionNumber(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil && int64(int(i)) == i {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidVersionNumber, n)
	}
	if f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return 0, fmt.Errorf("%w: %s", ErrInvalidVersionNumber, n)
	}
	return int(f), nil
}

// Representation is one format-specific output of a version.
type Representation struct {
	Schema string `json:"schema"`
	// Format is the file extension including the leading dot, e.g. ".ma".
	Format string `json:"format"`
	// Path is unformatted; see FilePath.
	Path string `json:"path"`

	Extra map[string]interface{} `json:"-"`
}

var representationKeys = []string{"schema", "format", "path"}

func (r Representation) MarshalJSON() ([]byte, error) {
	type plain Representation
	return marshalWithExtra(plain(r), r.Extra)
}

func (r *Representation) UnmarshalJSON(data []byte) error {
	type plain Representation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, representationKeys)
	if err != nil {
		return err
	}
	*r = Representation(p)
	r.Extra = extra
	return nil
}

// FilePath expands the representation path with {dirname} set to the version
// directory and {format} set to the representation format.
func (r Representation) FilePath(dirname string) (string, error) {
	return Expand(r.Path, map[string]string{
		"dirname": dirname,
		"format":  r.Format,
	})
}

// Subset is a named stream of versions within an asset, e.g. modelDefault.
type Subset struct {
	Schema   string    `json:"schema"`
	Name     string    `json:"name"`
	Versions []Version `json:"versions"`
}

// At returns a version by position. Negative indices count from the end, so -1 is the latest.
func (s Subset) At(index int) (Version, error) {
	i := index
	if i < 0 {
		i += len(s.Versions)
	}
	if i < 0 || i >= len(s.Versions) {
		return Version{}, fmt.Errorf("version index %d of subset %q: %w", index, s.Name, ErrNoSuchVersion)
	}
	return s.Versions[i], nil
}

// Number returns the version carrying the given version number.
func (s Subset) Number(n int) (Version, error) {
	for _, v := range s.Versions {
		if v.Version == n {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("version %d of subset %q: %w", n, s.Name, ErrNoSuchVersion)
}

// Latest returns the highest-numbered version.
func (s Subset) Latest() (Version, bool) {
	if len(s.Versions) == 0 {
		return Version{}, false
	}
	latest := s.Versions[0]
	for _, v := range s.Versions[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	return latest, true
}

// Asset is a unit of published data such as a character or prop.
type Asset struct {
	Schema  string   `json:"schema"`
	Name    string   `json:"name"`
	Silo    string   `json:"silo,omitempty"`
	Subsets []Subset `json:"subsets"`
}

// FindSubset looks a subset up by name.
func (a Asset) FindSubset(name string) (Subset, bool) {
	for _, s := range a.Subsets {
		if s.Name == name {
			return s, true
		}
	}
	return Subset{}, false
}

// Container is the metadata imprinted on a version once it is loaded into a host.
type Container struct {
	Schema  string `json:"schema"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Author  string `json:"author"`
	Loader  string `json:"loader"`
	Time    string `json:"time"`
	Version int    `json:"version"`
	Source  string `json:"source"`
	Comment string `json:"comment,omitempty"`
}

// Instance marks content for publishing. Data carries family-specific members.
type Instance struct {
	Schema string `json:"schema"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Subset string `json:"subset"`
	Family string `json:"family"`

	Data map[string]interface{} `json:"-"`
}

var instanceKeys = []string{"schema", "id", "name", "subset", "family"}

func (i Instance) MarshalJSON() ([]byte, error) {
	type plain Instance
	return marshalWithExtra(plain(i), i.Data)
}

func (i *Instance) UnmarshalJSON(data []byte) error {
	type plain Instance
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := splitExtra(data, instanceKeys)
	if err != nil {
		return err
	}
	*i = Instance(p)
	i.Data = extra
	return nil
}

// marshalWithExtra encodes known and merges extra underneath it; known fields win.
func marshalWithExtra(known interface{}, extra map[string]interface{}) ([]byte, error) {
	if len(extra) == 0 {
		return json.Marshal(known)
	}
	kb, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]interface{}, len(extra))
	for k, v := range extra {
		merged[k] = v
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(kb, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func splitExtra(data []byte, known []string) (map[string]interface{}, error) {
	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
