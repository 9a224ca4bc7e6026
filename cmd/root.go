package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pyblish/pyblish-minbender/internal/ops"
	"github.com/pyblish/pyblish-minbender/pkg/buildinfo"
	"github.com/pyblish/pyblish-minbender/pkg/config"
	"github.com/pyblish/pyblish-minbender/pkg/exitcode"
	"github.com/pyblish/pyblish-minbender/pkg/logger"
	"github.com/pyblish/pyblish-minbender/pkg/safeio"
)

// newRootCommand creates a fresh root command instance.
// Tests build isolated trees with newRootCommand + registerSubcommands.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mindbender",
		Short: "Asset version records: validate, list and load published assets",
		Long: `Mindbender works with the metadata an asset pipeline publishes: version records,
their representations, and the subsets and assets that group them.

Examples:
   mindbender validate 'assets/**/.metadata.json'   # Validate published version records
   mindbender ls --root /projects/hulk               # List published assets
   mindbender load hero modelDefault                 # Resolve the latest version of a subset
   mindbender create hero --family mindbender.model  # Show the instance a new set receives`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("config", "", "Configuration file (default: mindbender.yaml in ., $HOME or $MINDBENDER_HOME/config)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitcode.Wrap(exitcode.UsageError, err)
	})

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("mindbender {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command and wires grouped help.
func registerSubcommands(cmd *cobra.Command) {
	reg := ops.NewRegistry()
	add := func(group ops.CommandGroup, sub *cobra.Command) {
		cmd.AddCommand(sub)
		if err := reg.Register(group, sub); err != nil {
			panic(fmt.Sprintf("failed to register %s command: %v", sub.Name(), err))
		}
	}

	add(ops.GroupRecords, newValidateCommand())
	add(ops.GroupRecords, newSchemaCommand())
	add(ops.GroupLibrary, newLsCommand())
	add(ops.GroupLibrary, newLoadCommand())
	add(ops.GroupLibrary, newCreateCommand())
	add(ops.GroupSupport, newInfoCommand())
	add(ops.GroupSupport, newVersionCommand())

	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c != cmd {
			defaultHelp(c, args)
			return
		}
		c.Println(c.Long)
		c.Println()
		for _, group := range ops.Groups {
			regs := reg.GetCommandsByGroup(group)
			if len(regs) == 0 {
				continue
			}
			c.Printf("%s:\n", group.Title())
			for _, r := range regs {
				c.Printf("  %-12s %s\n", r.Name, r.Description)
			}
			c.Println()
		}
		c.Println("Flags:")
		c.Print(c.UsageString())
	})
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the root command and exits with the code carried by its error.
// This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		code := exitcode.Code(err)
		logger.Error("Command execution failed", logger.Err(err), logger.String("exit", exitcode.String(code)))
		os.Exit(code)
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	logLevel, ok := logger.ParseLevel(logLevelStr)

	cfg := logger.Config{
		Level:     logLevel,
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "mindbender",
	}

	if err := logger.Initialize(cfg); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
	logger.SetOutput(cmd.ErrOrStderr())
	if !ok {
		logger.Warn("Unknown log level, using info", logger.String("level", logLevelStr))
	}
}

// loadConfig resolves configuration honouring the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		clean, err := safeio.CleanUserPath(path)
		if err != nil {
			return nil, exitcode.Wrap(exitcode.ConfigError, fmt.Errorf("--config: %w", err))
		}
		path = clean
	}
	cfg, err := config.Load(config.LoadOptions{ConfigFile: path})
	if err != nil {
		return nil, exitcode.Wrap(exitcode.ConfigError, err)
	}
	if cfg.File != "" {
		logger.Debug("Loaded configuration", logger.String("file", cfg.File))
	}
	return cfg, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON output: %w", err)
	}
	return nil
}

// outputFormat is the --format flag value: text or json.
type outputFormat string

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(s string) error {
	switch s {
	case "text", "json":
		*f = outputFormat(s)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (text|json)", s)
	}
}

func (f *outputFormat) Type() string { return "format" }

func addFormatFlag(cmd *cobra.Command) {
	format := outputFormat("text")
	cmd.Flags().Var(&format, "format", "Output format (text|json)")
}

func getFormat(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("format"); f != nil {
		return f.Value.String()
	}
	return "text"
}
