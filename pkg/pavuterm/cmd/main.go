package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MixyLabs/pavuterm/pkg/pavuterm"
)

var (
	gitCommit  string
	versionTag string
	buildType  string
)

// rootOptions holds the flags shared by all commands
type rootOptions struct {
	verbose    bool
	configFile string
	server     string
	view       string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "pavuterm",
		Short:        "Terminal mixer for PulseAudio",
		Long:         "pavuterm lists PulseAudio streams, devices and cards and controls their volume, mute state and routing.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMixer(cmd, opts)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show verbose logs (useful for debugging)")
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default searches the user config dir, then .)")
	cmd.PersistentFlags().StringVar(&opts.server, "server", "", "PulseAudio server address")
	cmd.Flags().StringVar(&opts.view, "view", "", "initial view (sink_inputs, source_outputs, sinks, sources, cards)")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newLogger(opts *rootOptions) (*zap.SugaredLogger, *zap.SugaredLogger, error) {
	logger, err := pavuterm.NewLogger(buildType, opts.verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	named := logger.Named("main")
	named.Debug("Created logger")

	named.Infow("Version info",
		"gitCommit", gitCommit,
		"versionTag", versionTag,
		"buildType", buildType)

	if opts.verbose {
		named.Debug("Verbose flag provided, all log messages will be shown")
	}

	return logger, named, nil
}

func runMixer(cmd *cobra.Command, opts *rootOptions) error {
	logger, named, err := newLogger(opts)
	if err != nil {
		return err
	}

	p, err := pavuterm.NewPavuterm(logger, opts.configFile, opts.verbose)
	if err != nil {
		named.Errorw("Failed to create pavuterm object", "error", err)
		return err
	}

	if err := p.Config().BindFlag("server", cmd.Flag("server")); err != nil {
		return err
	}
	if err := p.Config().BindFlag("start_view", cmd.Flag("view")); err != nil {
		return err
	}

	p.SetVersion(versionString())

	if err := p.Initialize(cmd.Context()); err != nil {
		named.Errorw("pavuterm stopped with an error", "error", err, "logFile", pavuterm.LogPath())
		return err
	}

	named.Info("Exited cleanly")

	return nil
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print a snapshot of all streams, devices and cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, named, err := newLogger(opts)
			if err != nil {
				return err
			}

			if err := pavuterm.PrintSnapshot(logger, cmd.OutOrStdout(), opts.configFile, opts.server); err != nil {
				named.Errorw("Failed to print snapshot", "error", err)
				return err
			}

			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
			if gitCommit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "commit %s\n", gitCommit)
			}
		},
	}
}

func versionString() string {
	if buildType == "" || (versionTag == "" && gitCommit == "") {
		return "pavuterm (development build)"
	}

	identifier := gitCommit
	if versionTag != "" {
		identifier = versionTag
	}

	return fmt.Sprintf("pavuterm %s-%s", buildType, identifier)
}
