package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
	"github.com/pyblish/pyblish-minbender/pkg/schema"
)

func newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the embedded record schemas",
		Long: `Inspect the JSON Schemas mindbender validates records against.

Schemas can be named by short name (version), versioned name (version-1.0)
or the identifier records carry (pyblish-mindbender:version-1.0).`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List embedded schemas",
		Args:  cobra.NoArgs,
		RunE:  runSchemaList,
	}
	addFormatFlag(list)

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print an embedded schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchemaShow,
	}

	cmd.AddCommand(list, show)
	return cmd
}

func runSchemaList(cmd *cobra.Command, _ []string) error {
	format := getFormat(cmd)
	infos := schema.Schemas()
	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), infos)
	}
	for _, info := range infos {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-40s %s\n", info.Name, info.ID, info.Draft)
	}
	return nil
}

func runSchemaShow(cmd *cobra.Command, args []string) error {
	data, _, err := schema.SchemaBytes(args[0])
	if err != nil {
		return exitcode.Wrap(exitcode.NotFound, err)
	}
	out := cmd.OutOrStdout()
	_, _ = out.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, _ = fmt.Fprintln(out)
	}
	return nil
}
