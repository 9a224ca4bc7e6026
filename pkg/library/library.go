// Package library reads published assets from a project root.
//
// The layout written by the publisher is
//
//	<root>/<silo>/<asset>/publish/<subset>/v<NNN>/.metadata.json
//
// The reader never writes. Version files that cannot be read or do not match
// the version schema are skipped and reported as problems.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/pyblish/pyblish-minbender/pkg/logger"
	"github.com/pyblish/pyblish-minbender/pkg/record"
	"github.com/pyblish/pyblish-minbender/pkg/schema"
)

const (
	// DefaultSilo is the silo listed when none is configured.
	DefaultSilo = "assets"
	// MetadataFile is the version record written into every version directory.
	MetadataFile = ".metadata.json"
	publishDir   = "publish"

	defaultMaxFileSize int64 = 10 * 1024 * 1024
)

var (
	// ErrSiloNotFound is returned when the silo directory does not exist.
	ErrSiloNotFound = errors.New("silo not found")
	// ErrAssetNotFound is returned by Asset for an unknown asset name.
	ErrAssetNotFound = errors.New("asset not found")
)

// Options configures a Library.
type Options struct {
	Silo string
	// AssetFilter is a doublestar pattern matched against the asset name and "<silo>/<asset>".
	AssetFilter string
	Workers     int
	MaxFileSize int64
}

// Severity of a Problem.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Problem describes a version file that was skipped or looks suspicious.
type Problem struct {
	Path     string                   `json:"path"`
	Severity string                   `json:"severity"`
	Message  string                   `json:"message"`
	Errors   []schema.ValidationError `json:"errors,omitempty"`
}

// Listing is the result of Ls.
type Listing struct {
	Silo     string         `json:"silo"`
	Assets   []record.Asset `json:"assets"`
	Problems []Problem      `json:"problems,omitempty"`
}

// FindAsset looks an asset up by name.
func (l *Listing) FindAsset(name string) (record.Asset, bool) {
	for _, a := range l.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return record.Asset{}, false
}

// Library lists published assets of one silo.
type Library struct {
	fs   billy.Filesystem
	opts Options
}

// Open creates a Library reading from fs, whose root is the project root.
func Open(fs billy.Filesystem, opts Options) (*Library, error) {
	if fs == nil {
		return nil, fmt.Errorf("library filesystem is nil")
	}
	if opts.Silo == "" {
		opts.Silo = DefaultSilo
	}
	if strings.ContainsAny(opts.Silo, `/\`) || opts.Silo == ".." {
		return nil, fmt.Errorf("invalid silo name %q", opts.Silo)
	}
	if opts.AssetFilter != "" && !doublestar.ValidatePattern(opts.AssetFilter) {
		return nil, fmt.Errorf("invalid asset filter %q", opts.AssetFilter)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}
	return &Library{fs: fs, opts: opts}, nil
}

// OpenDir opens the project rooted at dir on the local filesystem.
func OpenDir(dir string, opts Options) (*Library, error) {
	if dir == "" {
		return nil, fmt.Errorf("no project root configured (set root, MINDBENDER_ROOT or PROJECTDIR)")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", dir)
	}
	return Open(osfs.New(dir), opts)
}

// Silo returns the silo this library lists.
func (l *Library) Silo() string { return l.opts.Silo }

// Ls lists every asset of the silo that matches the asset filter.
func (l *Library) Ls(ctx context.Context) (*Listing, error) {
	names, err := l.assetNames()
	if err != nil {
		return nil, err
	}
	return l.scan(ctx, names)
}

// Asset lists a single asset by name.
func (l *Library) Asset(ctx context.Context, name string) (record.Asset, []Problem, error) {
	names, err := l.assetNames()
	if err != nil {
		return record.Asset{}, nil, err
	}
	for _, n := range names {
		if n != name {
			continue
		}
		listing, err := l.scan(ctx, []string{n})
		if err != nil {
			return record.Asset{}, nil, err
		}
		if a, ok := listing.FindAsset(name); ok {
			return a, listing.Problems, nil
		}
		break
	}
	return record.Asset{}, nil, fmt.Errorf("%s/%s: %w", l.opts.Silo, name, ErrAssetNotFound)
}

func (l *Library) assetNames() ([]string, error) {
	entries, err := l.fs.ReadDir(l.opts.Silo)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", l.opts.Silo, ErrSiloNotFound)
		}
		return nil, fmt.Errorf("read silo %s: %w", l.opts.Silo, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !l.matches(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (l *Library) matches(asset string) bool {
	if l.opts.AssetFilter == "" {
		return true
	}
	if ok, _ := doublestar.Match(l.opts.AssetFilter, asset); ok {
		return true
	}
	ok, _ := doublestar.Match(l.opts.AssetFilter, l.opts.Silo+"/"+asset)
	return ok
}

type assetScan struct {
	asset    record.Asset
	found    bool
	problems []Problem
}

func (l *Library) scan(ctx context.Context, names []string) (*Listing, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)

	scans := make([]assetScan, len(names))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scans[i] = l.scanAsset(name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	listing := &Listing{Silo: l.opts.Silo, Assets: []record.Asset{}}
	for _, s := range scans {
		listing.Problems = append(listing.Problems, s.problems...)
		if s.found {
			listing.Assets = append(listing.Assets, s.asset)
		}
	}
	logger.Debug("Listed silo",
		logger.String("silo", l.opts.Silo),
		logger.Int("assets", len(listing.Assets)),
		logger.Int("problems", len(listing.Problems)))
	return listing, nil
}

// scanAsset reads <silo>/<asset>/publish. Directories without a publish folder are not assets.
func (l *Library) scanAsset(name string) assetScan {
	var out assetScan
	publish := path.Join(l.opts.Silo, name, publishDir)
	entries, err := l.fs.ReadDir(publish)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			out.problems = append(out.problems, l.problem(publish, SeverityError, err.Error(), nil))
		}
		return out
	}

	asset := record.Asset{Schema: record.SchemaAsset, Name: name, Silo: l.opts.Silo, Subsets: []record.Subset{}}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		subset, problems := l.scanSubset(path.Join(publish, e.Name()), e.Name())
		out.problems = append(out.problems, problems...)
		if len(subset.Versions) == 0 {
			continue
		}
		asset.Subsets = append(asset.Subsets, subset)
	}
	sort.Slice(asset.Subsets, func(i, j int) bool { return asset.Subsets[i].Name < asset.Subsets[j].Name })
	out.asset = asset
	out.found = true
	return out
}

func (l *Library) scanSubset(dir, name string) (record.Subset, []Problem) {
	subset := record.Subset{Schema: record.SchemaSubset, Name: name, Versions: []record.Version{}}
	var problems []Problem

	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		return subset, append(problems, l.problem(dir, SeverityError, err.Error(), nil))
	}
	for _, e := range entries {
		number, ok := versionDirNumber(e.Name())
		if !e.IsDir() || !ok {
			continue
		}
		file := path.Join(dir, e.Name(), MetadataFile)
		v, p := l.readVersion(file)
		if p != nil {
			problems = append(problems, *p)
			continue
		}
		if v.Version != number {
			logger.Debug("Version number differs from directory",
				logger.String("file", file),
				logger.Int("record", v.Version),
				logger.Int("directory", number))
		}
		subset.Versions = append(subset.Versions, v)
	}

	sort.SliceStable(subset.Versions, func(i, j int) bool {
		return subset.Versions[i].Version < subset.Versions[j].Version
	})
	for i := 1; i < len(subset.Versions); i++ {
		if subset.Versions[i].Version == subset.Versions[i-1].Version {
			problems = append(problems, l.problem(dir, SeverityWarning,
				fmt.Sprintf("duplicate version %d in subset %s", subset.Versions[i].Version, name), nil))
		}
	}
	return subset, problems
}

func (l *Library) readVersion(file string) (record.Version, *Problem) {
	info, err := l.fs.Stat(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p := l.problem(file, SeverityWarning, "version directory has no "+MetadataFile, nil)
			return record.Version{}, &p
		}
		p := l.problem(file, SeverityError, err.Error(), nil)
		return record.Version{}, &p
	}
	if info.Size() > l.opts.MaxFileSize {
		p := l.problem(file, SeverityError, fmt.Sprintf("file exceeds max size (%d > %d)", info.Size(), l.opts.MaxFileSize), nil)
		return record.Version{}, &p
	}
	data, err := util.ReadFile(l.fs, file)
	if err != nil {
		p := l.problem(file, SeverityError, err.Error(), nil)
		return record.Version{}, &p
	}

	doc, _, err := schema.Decode(data, schema.FormatJSON)
	if err != nil {
		p := l.problem(file, SeverityError, err.Error(), nil)
		return record.Version{}, &p
	}
	res, err := schema.Validate(doc, "version")
	if err != nil {
		p := l.problem(file, SeverityError, err.Error(), nil)
		return record.Version{}, &p
	}
	if !res.Valid {
		p := l.problem(file, SeverityError, "does not match version schema", res.Errors)
		return record.Version{}, &p
	}

	var v record.Version
	if err := json.Unmarshal(data, &v); err != nil {
		p := l.problem(file, SeverityError, err.Error(), nil)
		return record.Version{}, &p
	}
	return v, nil
}

func (l *Library) problem(p, severity, msg string, errs []schema.ValidationError) Problem {
	fields := []logger.Field{logger.String("path", p), logger.String("severity", severity), logger.String("problem", msg)}
	if len(errs) > 0 {
		fields = append(fields, logger.Int("errors", len(errs)))
	}
	logger.Warn("Library problem", fields...)
	return Problem{Path: p, Severity: severity, Message: msg, Errors: errs}
}

// versionDirNumber parses "v001" style directory names.
func versionDirNumber(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'v' {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
