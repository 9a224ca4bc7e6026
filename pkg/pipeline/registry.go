// Package pipeline holds the registered families, formats and default
// instance data, and implements creating instances and loading versions.
package pipeline

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/pyblish/pyblish-minbender/pkg/config"
	"github.com/pyblish/pyblish-minbender/pkg/record"
)

// Loader names.
const (
	LoaderGeneric   = "generic"
	LoaderRig       = "rig"
	LoaderAnimation = "animation"
)

// Default family names.
const (
	FamilyModel     = "mindbender.model"
	FamilyRig       = "mindbender.rig"
	FamilyAnimation = "mindbender.animation"
)

// DataEntry is one member imprinted on new instances. String values may use {name} and {family}.
type DataEntry struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
	Help  string      `json:"help,omitempty"`
}

// Family is a category of content and the loader used for it.
type Family struct {
	Name   string      `json:"name"`
	Help   string      `json:"help,omitempty"`
	Loader string      `json:"loader,omitempty"`
	Data   []DataEntry `json:"data,omitempty"`
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	root     string
	author   string
	formats  []string
	families []Family
	data     []DataEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns a registry with the stock data, formats and families installed.
func Default(root string) *Registry {
	r := NewRegistry()
	r.RegisterRoot(root)

	r.RegisterData("id", record.InstanceID, "")
	r.RegisterData("name", "{name}", "")
	r.RegisterData("subset", "{name}", "")
	r.RegisterData("family", "{family}", "")

	for _, f := range config.DefaultFormats {
		r.RegisterFormat(f)
	}

	r.RegisterFamily(Family{Name: FamilyModel, Help: "Polygonal geometry for animation", Loader: LoaderGeneric})
	r.RegisterFamily(Family{Name: FamilyRig, Help: "Character rig", Loader: LoaderRig})
	r.RegisterFamily(Family{
		Name:   FamilyAnimation,
		Help:   "Pointcache",
		Loader: LoaderAnimation,
		Data: []DataEntry{
			{Key: "startFrame", Value: 1001},
			{Key: "endFrame", Value: 1100},
		},
	})
	return r
}

// FromConfig installs the defaults and applies configured root, author, formats and families.
// A configured family replaces a registered one of the same name.
func FromConfig(cfg *config.Config) *Registry {
	r := Default(cfg.Root)
	r.SetAuthor(cfg.Author)
	if len(cfg.Formats) > 0 {
		r.formats = nil
		for _, f := range cfg.Formats {
			r.RegisterFormat(f)
		}
	}
	for _, fc := range cfg.Families {
		fam := Family{Name: fc.Name, Help: fc.Help, Loader: fc.Loader}
		for _, d := range fc.Data {
			fam.Data = append(fam.Data, DataEntry{Key: d.Key, Value: d.Value, Help: d.Help})
		}
		r.RegisterFamily(fam)
	}
	return r
}

// RegisterRoot sets the project root.
func (r *Registry) RegisterRoot(root string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root = root
}

// Root returns the project root.
func (r *Registry) Root() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root
}

// RegisterFormat adds a representation format such as ".ma". Re-registering is a no-op.
func (r *Registry) RegisterFormat(format string) {
	format = normalizeFormat(format)
	if format == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.formats {
		if f == format {
			return
		}
	}
	r.formats = append(r.formats, format)
}

// DeregisterFormat removes a format.
func (r *Registry) DeregisterFormat(format string) {
	format = normalizeFormat(format)
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.formats[:0]
	for _, f := range r.formats {
		if f != format {
			out = append(out, f)
		}
	}
	r.formats = out
}

// Formats returns the registered formats in registration order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.formats...)
}

// HasFormat reports whether format is registered.
func (r *Registry) HasFormat(format string) bool {
	format = normalizeFormat(format)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.formats {
		if f == format {
			return true
		}
	}
	return false
}

// RegisterFamily adds a family, replacing any registered family with the same name.
func (r *Registry) RegisterFamily(f Family) {
	if f.Loader == "" {
		f.Loader = LoaderGeneric
	}
	f.Data = append([]DataEntry(nil), f.Data...)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.families {
		if sameName(existing.Name, f.Name) {
			r.families[i] = f
			return
		}
	}
	r.families = append(r.families, f)
}

// DeregisterFamily removes a family by name.
func (r *Registry) DeregisterFamily(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.families[:0]
	for _, f := range r.families {
		if !sameName(f.Name, name) {
			out = append(out, f)
		}
	}
	r.families = out
}

// Families returns the registered families in registration order.
func (r *Registry) Families() []Family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Family(nil), r.families...)
}

// Family looks a family up by name, ignoring case.
func (r *Registry) Family(name string) (Family, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.families {
		if sameName(f.Name, name) {
			return f, true
		}
	}
	return Family{}, false
}

// RegisterData adds a default instance member, replacing one with the same key.
func (r *Registry) RegisterData(key string, value interface{}, help string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := DataEntry{Key: key, Value: value, Help: help}
	for i, d := range r.data {
		if d.Key == key {
			r.data[i] = entry
			return
		}
	}
	r.data = append(r.data, entry)
}

// DeregisterData removes a default instance member.
func (r *Registry) DeregisterData(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.data[:0]
	for _, d := range r.data {
		if d.Key != key {
			out = append(out, d)
		}
	}
	r.data = out
}

// Data returns the default instance members.
func (r *Registry) Data() []DataEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]DataEntry(nil), r.data...)
}

func sameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

func normalizeFormat(format string) string {
	format = strings.TrimSpace(format)
	if format == "" {
		return ""
	}
	if !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	return format
}
