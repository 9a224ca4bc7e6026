package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyblish/pyblish-minbender/pkg/buildinfo"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show mindbender version",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show detailed build information")
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	info := buildinfo.Collect()

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), info)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "mindbender %s\n", info.Version)
	if !extended {
		return nil
	}
	if info.ModuleVersion != "" {
		_, _ = fmt.Fprintf(out, "Module:    %s\n", info.ModuleVersion)
	}
	if info.Revision != "" {
		_, _ = fmt.Fprintf(out, "Revision:  %s\n", info.Revision)
	}
	_, _ = fmt.Fprintf(out, "Go:        %s\n", info.GoVersion)
	_, _ = fmt.Fprintf(out, "Platform:  %s/%s\n", info.Platform, info.Arch)
	return nil
}
