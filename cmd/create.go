package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
	"github.com/pyblish/pyblish-minbender/pkg/pipeline"
)

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Show the instance record a new set would receive",
		Long: `Build the instance data imprinted on "<NAME>_SET" for a family: the registered
default data merged with the family's data, with {name} and {family} resolved.`,
		Example: `  mindbender create hero --family mindbender.model`,
		Args:    cobra.ExactArgs(1),
		RunE:    runCreate,
	}
	cmd.Flags().String("family", "", "Family of the new instance (required)")
	cmd.Flags().StringSlice("existing", nil, "Names already present in the scene")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	family, _ := cmd.Flags().GetString("family")
	existing, _ := cmd.Flags().GetStringSlice("existing")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[name] = true
	}

	reg := pipeline.FromConfig(cfg)
	inst, err := reg.Create(args[0], family, func(name string) bool { return taken[name] })
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrUnknownFamily):
			return exitcode.Wrap(exitcode.NotFound, err)
		case errors.Is(err, pipeline.ErrInstanceExists), errors.Is(err, pipeline.ErrInvalidTemplate):
			return exitcode.Wrap(exitcode.UsageError, err)
		default:
			return exitcode.Wrap(exitcode.ValidationError, err)
		}
	}
	return writeJSON(cmd.OutOrStdout(), inst)
}
