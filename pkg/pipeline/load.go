package pipeline

import (
	"errors"
	"fmt"

	"github.com/pyblish/pyblish-minbender/pkg/logger"
	"github.com/pyblish/pyblish-minbender/pkg/record"
)

// Loaded describes a version resolved for loading into a host.
type Loaded struct {
	Asset          string                `json:"asset"`
	Subset         string                `json:"subset"`
	Version        record.Version        `json:"version"`
	Representation record.Representation `json:"representation"`
	// File is the representation path with {dirname} and {format} resolved.
	File      string           `json:"file"`
	Loader    string           `json:"loader"`
	Container record.Container `json:"container"`
	// Instances are created as a side effect of loading, e.g. animation instances for rigs.
	Instances []record.Instance `json:"instances,omitempty"`
	User      string            `json:"user"`
}

// Load resolves the version at index (negative counts from the latest) and a
// representation of it. An empty format picks the first representation whose
// format is registered.
func (r *Registry) Load(asset record.Asset, subset record.Subset, index int, format string, exists Exists) (*Loaded, error) {
	version, err := subset.At(index)
	if err != nil {
		return nil, fmt.Errorf("version %d of %s/%s: %w", index, asset.Name, subset.Name, ErrVersionNotFound)
	}

	rep, err := r.representation(version, format)
	if err != nil {
		return nil, fmt.Errorf("%s/%s v%03d: %w", asset.Name, subset.Name, version.Version, err)
	}

	file, err := rep.FilePath(version.Path)
	if err != nil {
		if errors.Is(err, record.ErrUnknownPlaceholder) {
			return nil, fmt.Errorf("%w: representation path %q: %v", ErrInvalidTemplate, rep.Path, err)
		}
		return nil, err
	}

	loader := r.LoaderFor(version)
	name := subset.Name
	if loader == LoaderAnimation {
		if exists.check(name) {
			logger.Warn("Asset already imported", logger.String("name", name))
		}
	} else {
		name = UniqueName(asset.Name, exists)
	}

	container, err := Containerise(name, version, loader)
	if err != nil {
		return nil, err
	}

	loaded := &Loaded{
		Asset:          asset.Name,
		Subset:         subset.Name,
		Version:        version,
		Representation: rep,
		File:           file,
		Loader:         loader,
		Container:      container,
		User:           r.Author(),
	}

	if loader == LoaderRig {
		if _, ok := r.Family(FamilyAnimation); ok {
			inst, err := r.Create(name, FamilyAnimation, exists)
			if err != nil {
				return nil, fmt.Errorf("create animation instance for %s: %w", name, err)
			}
			loaded.Instances = append(loaded.Instances, inst)
		}
	}

	logger.Debug("Resolved version",
		logger.String("asset", asset.Name),
		logger.String("subset", subset.Name),
		logger.Int("version", version.Version),
		logger.String("loader", loader),
		logger.String("file", file))
	return loaded, nil
}

func (r *Registry) representation(version record.Version, format string) (record.Representation, error) {
	if format != "" {
		format = normalizeFormat(format)
		for _, rep := range version.Representations {
			if rep.Format == format {
				return rep, nil
			}
		}
		return record.Representation{}, fmt.Errorf("%s: %w", format, ErrNoRepresentation)
	}
	for _, rep := range version.Representations {
		if r.HasFormat(rep.Format) {
			return rep, nil
		}
	}
	return record.Representation{}, ErrNoRepresentation
}

// LoaderFor picks the loader of the first registered family the version lists.
func (r *Registry) LoaderFor(version record.Version) string {
	for _, fam := range r.Families() {
		for _, name := range version.Families {
			if sameName(fam.Name, name) {
				if fam.Loader == "" {
					return LoaderGeneric
				}
				return fam.Loader
			}
		}
	}
	return LoaderGeneric
}

// UniqueName appends the first free two-digit counter to name, e.g. hero01.
func UniqueName(name string, exists Exists) string {
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%02d", name, i)
		if !exists.check(candidate) {
			return candidate
		}
	}
}

// Containerise builds the container record imprinted on a loaded version.
func Containerise(name string, version record.Version, loader string) (record.Container, error) {
	c := record.Container{
		Schema:  record.SchemaContainer,
		ID:      record.ContainerID,
		Name:    name,
		Author:  version.Author,
		Loader:  loader,
		Time:    version.Time,
		Version: version.Version,
		Source:  version.Source,
		Comment: version.Comment,
	}
	if err := validateRecord(c, "container"); err != nil {
		return record.Container{}, fmt.Errorf("containerise %s: %w", name, err)
	}
	return c, nil
}
