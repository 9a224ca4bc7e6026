package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/pyblish/pyblish-minbender/pkg/config"
	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
	"github.com/pyblish/pyblish-minbender/pkg/ignore"
	"github.com/pyblish/pyblish-minbender/pkg/logger"
	"github.com/pyblish/pyblish-minbender/pkg/safeio"
	"github.com/pyblish/pyblish-minbender/pkg/schema"
)

// recordPattern selects record files when a directory is given.
const recordPattern = "**/*.{json,yaml,yml,toml}"

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [files, directories or globs...]",
		Short: "Validate record files against the embedded schemas",
		Long: `Validate version records (and the other mindbender records) against the embedded schemas.

Each record is checked against the schema named by its own "schema" field unless
--schema forces one. Globs use doublestar syntax and are expanded by mindbender,
so quote them to keep the shell from expanding them first. Directories are searched
recursively for JSON, YAML and TOML files, skipping anything matched by .gitignore
or .mindbenderignore.

Exit codes: 0 all valid, 3 validation failed, 4 no readable input.`,
		Example: `  mindbender validate assets/hero/publish/modelDefault/v001/.metadata.json
  mindbender validate 'assets/**/.metadata.json' --format json
  mindbender validate --schema representation rep.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}
	cmd.Flags().String("schema", "", "Force a schema (e.g. version, version-1.0, pyblish-mindbender:version-1.0)")
	addFormatFlag(cmd)
	cmd.Flags().Int("workers", 0, "Concurrent validations (0 = validate.workers from config, else CPU count)")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	schemaName, _ := cmd.Flags().GetString("schema")
	format := getFormat(cmd)
	workers, _ := cmd.Flags().GetInt("workers")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = cfg.Validate.Workers
	}

	if schemaName != "" {
		resolved, ok := schema.ResolveName(schemaName)
		if !ok {
			return exitcode.Wrap(exitcode.NotFound, fmt.Errorf("schema %s not found (see 'mindbender schema list')", schemaName))
		}
		schemaName = resolved
	}

	paths, err := expandInputs(args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	logger.Debug("Validating records",
		logger.Int("files", len(paths)),
		logger.String("schema", schemaName),
		logger.Int("workers", workers))

	start := time.Now()
	batch, err := schema.ValidateFiles(cmd.Context(), paths, schema.BatchOptions{
		Schema:         schemaName,
		MaxConcurrency: workers,
		MaxFileSize:    cfg.Validate.MaxFileSize,
	})
	if err != nil {
		return err
	}
	logger.Debug("Validation finished",
		logger.Bool("valid", batch.Valid),
		logger.Int("invalid", batch.InvalidFiles),
		logger.Duration("took", time.Since(start)))

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := writeJSON(out, batch); err != nil {
			return err
		}
	} else {
		for _, path := range paths {
			res := batch.FileResults[path]
			if res == nil {
				continue
			}
			marker := "✅"
			if !res.Valid {
				marker = "❌"
			}
			_, _ = fmt.Fprintf(out, "%s %s", marker, path)
			if res.Schema != "" {
				_, _ = fmt.Fprintf(out, " (%s)", res.Schema)
			}
			_, _ = fmt.Fprintln(out)
			for _, verr := range res.Errors {
				_, _ = fmt.Fprintf(out, "    - %s [%s]\n", verr.String(), verr.Rule)
			}
		}
		_, _ = fmt.Fprintln(out, batch.Summary)
	}

	if !batch.Valid {
		return exitcode.Wrap(exitcode.ValidationError,
			fmt.Errorf("%d of %d file(s) failed validation", batch.InvalidFiles, batch.TotalFiles))
	}
	return nil
}

// expandInputs turns arguments into a sorted, de-duplicated list of files.
func expandInputs(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.ToSlash(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, arg := range args {
		clean, err := safeio.CleanUserPath(arg)
		if err != nil {
			return nil, exitcode.Wrap(exitcode.FileSystemError, fmt.Errorf("%s: %w", arg, err))
		}

		if info, err := os.Stat(clean); err == nil {
			if !info.IsDir() {
				add(clean)
				continue
			}
			matches, err := walkRecords(clean)
			if err != nil {
				return nil, exitcode.Wrap(exitcode.FileSystemError, fmt.Errorf("search %s: %w", clean, err))
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		if !hasMeta(clean) {
			// A plain missing file is reported per file by the batch.
			add(clean)
			continue
		}
		matches, err := doublestar.FilepathGlob(clean, doublestar.WithFilesOnly())
		if err != nil {
			return nil, exitcode.Wrap(exitcode.FileSystemError, fmt.Errorf("glob %s: %w", clean, err))
		}
		if len(matches) == 0 {
			logger.Warn("Pattern matched no files", logger.String("pattern", arg))
		}
		for _, m := range matches {
			add(m)
		}
	}

	if len(files) == 0 {
		return nil, exitcode.Wrap(exitcode.FileSystemError, fmt.Errorf("no files to validate"))
	}
	sort.Strings(files)
	return files, nil
}

// walkRecords finds record files beneath dir, pruning directories matched by ignore files.
func walkRecords(dir string) ([]string, error) {
	home, _ := config.GetHome()
	matcher, err := ignore.NewMatcher(dir, home)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			if matcher.IsIgnoredDir(path) {
				logger.Debug("Skipping ignored directory", logger.String("path", path))
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if ok, _ := doublestar.Match(recordPattern, filepath.ToSlash(rel)); !ok {
			return nil
		}
		if matcher.IsIgnored(path) {
			logger.Debug("Skipping ignored file", logger.String("path", path))
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
