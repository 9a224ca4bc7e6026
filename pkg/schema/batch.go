package schema

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/pyblish/pyblish-minbender/pkg/safeio"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxFileSize bounds how much of a record file is read.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// BatchOptions configures batch validation behavior.
type BatchOptions struct {
	// Schema forces a schema for every file; empty means detect from each record's "schema" field.
	Schema         string `json:"schema,omitempty"`
	MaxConcurrency int    `json:"max_concurrency,omitempty"` // Default: runtime.NumCPU()
	MaxFileSize    int64  `json:"max_file_size_bytes,omitempty"`
}

// BatchResult aggregates results from multiple validations.
type BatchResult struct {
	Valid        bool               `json:"valid"`
	TotalFiles   int                `json:"total_files"`
	ValidFiles   int                `json:"valid_files"`
	InvalidFiles int                `json:"invalid_files"`
	Summary      string             `json:"summary"`
	FileResults  map[string]*Result `json:"file_results"`
}

// ValidateFile validates one record file. Unreadable or undecodable files are reported as errors.
func ValidateFile(path string, opts BatchOptions) (*Result, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	dataBytes, cleanPath, err := safeio.ReadFileLimited(path, opts.MaxFileSize)
	if err != nil {
		return nil, err
	}
	data, format, err := Decode(dataBytes, FormatForPath(cleanPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}

	name := opts.Schema
	if name == "" {
		if name, err = DetectSchema(data); err != nil {
			return nil, fmt.Errorf("%s: %w", cleanPath, err)
		}
	}
	res, err := Validate(data, name)
	if err != nil {
		return nil, err
	}
	for i := range res.Errors {
		res.Errors[i].Context = ValidationContext{SourceFile: cleanPath, SourceType: string(format), Severity: "error"}
	}
	return res, nil
}

// ValidateFiles validates many record files concurrently. Per-file failures become
// invalid results; only context cancellation aborts the batch.
func ValidateFiles(ctx context.Context, paths []string, opts BatchOptions) (*BatchResult, error) {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrency)

	results := make(map[string]*Result, len(paths))
	var mu sync.Mutex

	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := ValidateFile(path, opts)
			if err != nil {
				res = &Result{Valid: false, Schema: opts.Schema}
				res.Errors = append(res.Errors, ValidationError{
					Path:    rootPath,
					Rule:    "readable",
					Message: err.Error(),
					Context: ValidationContext{SourceFile: path, Severity: "error"},
				})
			}
			mu.Lock()
			results[path] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &BatchResult{TotalFiles: len(paths), FileResults: results}
	for _, res := range results {
		if res.Valid {
			batch.ValidFiles++
		} else {
			batch.InvalidFiles++
		}
	}
	batch.Valid = batch.TotalFiles > 0 && batch.InvalidFiles == 0
	batch.Summary = fmt.Sprintf("Total: %d, Valid: %d, Invalid: %d", batch.TotalFiles, batch.ValidFiles, batch.InvalidFiles)
	return batch, nil
}
