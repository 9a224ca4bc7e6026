package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
	"github.com/pyblish/pyblish-minbender/pkg/logger"
	"github.com/pyblish/pyblish-minbender/pkg/pipeline"
	"github.com/pyblish/pyblish-minbender/pkg/safeio"
)

func newLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load ASSET SUBSET",
		Short: "Resolve a published version for loading",
		Long: `Resolve a version of a subset and one of its representations to a file,
and print the container record a host would imprint on the loaded nodes.

--version is a position: 0 is the first published version and negative values
count back from the latest, so the default -1 is the latest version.`,
		Example: `  mindbender load hero modelDefault
  mindbender load hero rigDefault --version 0 --representation .ma`,
		Args: cobra.ExactArgs(2),
		RunE: runLoad,
	}
	addLibraryFlags(cmd)
	cmd.Flags().Int("version", -1, "Version position (-1 = latest)")
	cmd.Flags().String("representation", "", "Representation format, e.g. .ma (default: first registered format)")
	addFormatFlag(cmd)
	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	assetName, subsetName := args[0], args[1]
	index, _ := cmd.Flags().GetInt("version")
	representation, _ := cmd.Flags().GetString("representation")
	format := getFormat(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := openLibrary(cmd, cfg, "")
	if err != nil {
		return err
	}
	asset, problems, err := lib.Asset(cmd.Context(), assetName)
	if err != nil {
		return libraryError(err)
	}
	for _, p := range problems {
		logger.Debug("Skipped version", logger.String("path", p.Path), logger.String("problem", p.Message))
	}
	subset, ok := asset.FindSubset(subsetName)
	if !ok {
		return exitcode.Wrap(exitcode.NotFound, fmt.Errorf("subset %s of asset %s not found", subsetName, assetName))
	}

	reg := pipeline.FromConfig(cfg)
	logger.Debug("Resolving representation",
		logger.String("asset", assetName),
		logger.String("subset", subsetName),
		logger.Strings("formats", reg.Formats()))
	loaded, err := reg.Load(asset, subset, index, representation, nil)
	if err != nil {
		if errors.Is(err, pipeline.ErrVersionNotFound) || errors.Is(err, pipeline.ErrNoRepresentation) {
			return exitcode.Wrap(exitcode.NotFound, err)
		}
		return err
	}
	if cfg.Root != "" && !safeio.Contained(cfg.Root, loaded.File) {
		logger.Warn("Representation resolves outside the project root",
			logger.String("file", loaded.File),
			logger.String("root", cfg.Root))
	}

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), loaded)
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "file:      %s\n", loaded.File)
	_, _ = fmt.Fprintf(out, "version:   v%03d (%s)\n", loaded.Version.Version, loaded.Representation.Format)
	_, _ = fmt.Fprintf(out, "loader:    %s\n", loaded.Loader)
	_, _ = fmt.Fprintln(out, "container:")
	if err := writeJSON(out, loaded.Container); err != nil {
		return err
	}
	for _, inst := range loaded.Instances {
		_, _ = fmt.Fprintf(out, "instance %s:\n", pipeline.InstanceSetName(inst.Name))
		if err := writeJSON(out, inst); err != nil {
			return err
		}
	}
	return nil
}
