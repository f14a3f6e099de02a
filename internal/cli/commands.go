package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/blockflow/internal/app"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	logLevel  string
	logFormat string
	dagPaths  []string
	trace     bool
}

type builder struct {
	outW io.Writer
	opts globalOptions
	// started is set once arguments are parsed and a command begins.
	started bool
}

func newRootCommand(outW io.Writer) (*cobra.Command, *builder) {
	b := &builder{outW: outW}
	root := &cobra.Command{
		Use:   "blockflow",
		Short: "Run dataflow graphs of blocks.",
		Long: `blockflow - build and run dataflow graphs of blocks.

Blocks and dags come from the compiled-in modules and from dag files
(.hcl, .yaml, .yml) found under --dags-path.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			b.started = true
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&b.opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&b.opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringArrayVar(&b.opts.dagPaths, "dags-path", []string{"dags"}, "File or directory with dag definitions. Repeatable.")
	pf.BoolVar(&b.opts.trace, "trace", false, "Print OpenTelemetry spans of runs.")

	root.AddCommand(b.blocksCommand(), b.dagsCommand(), b.runCommand(), b.dumpCommand())
	return root, b
}

// newApp builds the application from the global flags and extra.
func (b *builder) newApp(extra app.Config) (*app.App, error) {
	extra.LogLevel = b.opts.logLevel
	extra.LogFormat = b.opts.logFormat
	extra.DagPaths = b.opts.dagPaths
	extra.Trace = b.opts.trace
	cfg, err := app.NewConfig(extra)
	if err != nil {
		return nil, usageError(err)
	}
	return app.NewApp(b.outW, cfg)
}

func optionalFilter(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (b *builder) blocksCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "blocks [SUFFIX]",
		Short: "List registered blocks, optionally those whose key ends with SUFFIX.",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := b.newApp(app.Config{})
			if err != nil {
				return err
			}
			return a.ListBlocks(cmd.Context(), optionalFilter(args), verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full docs and parameters.")
	return cmd
}

func (b *builder) dagsCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "dags [SUFFIX]",
		Short: "List registered dags, optionally those whose key ends with SUFFIX.",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := b.newApp(app.Config{})
			if err != nil {
				return err
			}
			return a.ListDags(cmd.Context(), optionalFilter(args), verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full docs and blocks.")
	return cmd
}

func (b *builder) runCommand() *cobra.Command {
	var (
		settingsPath    string
		update          string
		healthcheckPort int
	)
	cmd := &cobra.Command{
		Use:   "run DAG",
		Short: "Run a dag once.",
		Long: `Run a dag once with the settings file applied.

With -U block[,arg] the config-producing block is run first and the
settings it produces are merged into the settings file. Everything after
the first comma is passed to the block as in_arg.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := b.newApp(app.Config{SettingsPath: settingsPath, HealthcheckPort: healthcheckPort})
			if err != nil {
				return err
			}
			if update != "" {
				key, arg, _ := strings.Cut(update, ",")
				if err := a.UpdateConfig(cmd.Context(), key, arg); err != nil {
					return err
				}
			}
			_, err = a.Run(cmd.Context(), args[0])
			return err
		},
	}
	cmd.Flags().StringVarP(&settingsPath, "config", "C", app.DefaultSettingsPath, "Settings file applied to the dag.")
	cmd.Flags().StringVarP(&update, "update", "U", "", "Update the settings file with a config block: block[,arg].")
	cmd.Flags().IntVar(&healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	return cmd
}

func (b *builder) dumpCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump DAG",
		Short: "Print the definition of a dag.",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "hcl" && format != "yaml" {
				return usageError(errUnknownFormat(format))
			}
			a, err := b.newApp(app.Config{})
			if err != nil {
				return err
			}
			return a.Dump(cmd.Context(), args[0], format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "hcl", "Output format. Options: 'hcl' or 'yaml'.")
	return cmd
}
