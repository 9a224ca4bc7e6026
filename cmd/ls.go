package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/pyblish/pyblish-minbender/pkg/config"
	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
	"github.com/pyblish/pyblish-minbender/pkg/library"
	"github.com/pyblish/pyblish-minbender/pkg/record"
	"github.com/pyblish/pyblish-minbender/pkg/safeio"
)

func newLsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List published assets",
		Long: `List the assets published under <root>/<silo>, with their subsets and versions.

The root comes from --root, the configuration file, MINDBENDER_ROOT or PROJECTDIR.
Version files that cannot be read or do not match the version schema are skipped
and reported as problems.`,
		Example: `  mindbender ls --root /projects/hulk
  mindbender ls --asset 'hero*' --format json`,
		Args: cobra.NoArgs,
		RunE: runLs,
	}
	addLibraryFlags(cmd)
	cmd.Flags().String("asset", "", "Only list assets matching this doublestar pattern")
	addFormatFlag(cmd)
	return cmd
}

func addLibraryFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", "", "Project root (overrides configuration)")
	cmd.Flags().String("silo", "", "Silo to read (default from configuration, else assets)")
}

// openLibrary applies --root and --silo over configuration and opens the project.
func openLibrary(cmd *cobra.Command, cfg *config.Config, filter string) (*library.Library, error) {
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		clean, err := safeio.CleanUserPath(root)
		if err != nil {
			return nil, exitcode.Wrap(exitcode.FileSystemError, fmt.Errorf("--root: %w", err))
		}
		cfg.Root = clean
	}
	if silo, _ := cmd.Flags().GetString("silo"); silo != "" {
		cfg.Silo = silo
	}
	lib, err := library.OpenDir(cfg.Root, library.Options{
		Silo:        cfg.Silo,
		AssetFilter: filter,
		Workers:     cfg.Validate.Workers,
		MaxFileSize: cfg.Validate.MaxFileSize,
	})
	if err != nil {
		return nil, exitcode.Wrap(exitcode.FileSystemError, err)
	}
	return lib, nil
}

func libraryError(err error) error {
	switch {
	case errors.Is(err, library.ErrSiloNotFound), errors.Is(err, library.ErrAssetNotFound):
		return exitcode.Wrap(exitcode.NotFound, err)
	default:
		return exitcode.Wrap(exitcode.FileSystemError, err)
	}
}

func runLs(cmd *cobra.Command, _ []string) error {
	format := getFormat(cmd)
	filter, _ := cmd.Flags().GetString("asset")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := openLibrary(cmd, cfg, filter)
	if err != nil {
		return err
	}
	listing, err := lib.Ls(cmd.Context())
	if err != nil {
		return libraryError(err)
	}

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), listing)
	}
	writeListing(cmd.OutOrStdout(), listing)
	if n := len(listing.Problems); n > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d problem(s) while listing; rerun with --format json for details\n", n)
	}
	return nil
}

// writeListing prints one row per subset, aligned by display width.
func writeListing(w io.Writer, listing *library.Listing) {
	header := []string{"ASSET", "SUBSET", "VERSIONS", "LATEST", "AUTHOR", "TIME"}
	rows := [][]string{header}
	for _, asset := range listing.Assets {
		if len(asset.Subsets) == 0 {
			rows = append(rows, []string{asset.Name, "-", "0", "-", "-", "-"})
			continue
		}
		for _, subset := range asset.Subsets {
			latest, _ := subset.Latest()
			rows = append(rows, []string{
				asset.Name,
				subset.Name,
				strconv.Itoa(len(subset.Versions)),
				fmt.Sprintf("v%03d", latest.Version),
				latest.Author,
				displayTime(latest),
			})
		}
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "  "))
	}
}

func displayTime(v record.Version) string {
	t, err := v.ParsedTime()
	if err != nil {
		return v.Time
	}
	return t.Format("2006-01-02 15:04")
}
