package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyblish/pyblish-minbender/pkg/pipeline"
)

type infoReport struct {
	ConfigFile string            `json:"config_file,omitempty"`
	Root       string            `json:"root"`
	Silo       string            `json:"silo"`
	Author     string            `json:"author"`
	Formats    []string          `json:"formats"`
	Families   []pipeline.Family `json:"families"`
	Workers    int               `json:"validate_workers"`
	MaxSize    int64             `json:"validate_max_file_size"`
}

func newInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show effective configuration and registered families",
		Args:  cobra.NoArgs,
		RunE:  runInfo,
	}
	addFormatFlag(cmd)
	return cmd
}

func runInfo(cmd *cobra.Command, _ []string) error {
	format := getFormat(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	reg := pipeline.FromConfig(cfg)
	report := infoReport{
		ConfigFile: cfg.File,
		Root:       reg.Root(),
		Silo:       cfg.Silo,
		Author:     reg.Author(),
		Formats:    reg.Formats(),
		Families:   reg.Families(),
		Workers:    cfg.Validate.Workers,
		MaxSize:    cfg.Validate.MaxFileSize,
	}
	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), report)
	}

	out := cmd.OutOrStdout()
	configFile := report.ConfigFile
	if configFile == "" {
		configFile = "(defaults)"
	}
	root := report.Root
	if root == "" {
		root = "(not set)"
	}
	_, _ = fmt.Fprintf(out, "Config:   %s\n", configFile)
	_, _ = fmt.Fprintf(out, "Root:     %s\n", root)
	_, _ = fmt.Fprintf(out, "Silo:     %s\n", report.Silo)
	_, _ = fmt.Fprintf(out, "Author:   %s\n", report.Author)
	_, _ = fmt.Fprintf(out, "Formats:  %s\n", strings.Join(report.Formats, " "))
	_, _ = fmt.Fprintln(out, "Families:")
	for _, f := range report.Families {
		_, _ = fmt.Fprintf(out, "  %-24s %-10s %s\n", f.Name, f.Loader, f.Help)
	}
	return nil
}
