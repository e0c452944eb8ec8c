// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dockerino/dockerino/internal/config"
	"github.com/dockerino/dockerino/internal/issue"
)

// annotationConfigOptional marks commands that still run, on defaults, when
// the config file cannot be loaded.
const annotationConfigOptional = "dockerino/config-optional"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	socketPath string
	verbose    bool
	output     string
}

// NewRootCommand builds the dockerino command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "dockerino",
		Short: "Manage container images over the engine's Unix socket",
		Long: TitleStyle.Render("dockerino") + SubtitleStyle.Render(" - container images over the engine socket") + `

dockerino talks to a Docker compatible engine through its HTTP API on a
Unix socket. It lists, inspects, tags, removes, saves, loads, pushes and
builds images, and searches registries.

` + SubtitleStyle.Render("Examples:") + `
  dockerino images ls                   List images
  dockerino images ls --dangling        List untagged images
  dockerino images inspect alpine       Inspect an image
  dockerino images build . -t app:dev   Build an image
  dockerino search redis --official     Search a registry
  dockerino config show                 Show current configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.configure(cmd, flags); err != nil {
				return app.fail(cmd, err)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/dockerino/config.cue)")
	pf.StringVar(&flags.socketPath, "socket", "", "engine socket path (overrides socket_path)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVarP(&flags.output, "output", "o", "", "output format: table, json, yaml or toml")

	root.SetIn(app.stdin)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.AddCommand(newImagesCommand(app))
	root.AddCommand(newSearchCommand(app))
	root.AddCommand(newConfigCommand(app))

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code carried by any ExitError.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// handleError leaves already-rendered command failures alone and defers
// everything else (flag and argument errors) to fang's default styling.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.rendered {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// configure loads the configuration, applies flag overrides and sets up the
// logger for this invocation.
func (a *App) configure(cmd *cobra.Command, flags *rootFlags) error {
	loaded, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		if cmd.Annotations[annotationConfigOptional] != "true" {
			return withConfigIssue(err)
		}
		log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName}).
			Warn("Using default configuration", "error", err)
		loaded = &config.Loaded{Config: config.DefaultConfig()}
	}

	cfg := *loaded.Config
	if flags.socketPath != "" {
		cfg.SocketPath = config.SocketPath(flags.socketPath)
	}
	if flags.output != "" {
		cfg.Output = config.OutputFormat(flags.output)
	}
	if flags.verbose {
		cfg.LogLevel = config.LogLevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return issue.NewErrorContext().
			WithOperation("apply command line flags").
			WithSuggestion("Valid --output values are table, json, yaml and toml").
			WithSuggestion("--socket must be an absolute path").
			Wrap(err).
			BuildError()
	}

	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  cfg.LogLevel.Level(),
	})

	a.session = &session{
		cfg:     &cfg,
		cfgPath: loaded.Path,
		logger:  logger,
		verbose: flags.verbose || cfg.LogLevel == config.LogLevelDebug,
	}
	return nil
}

// withConfigIssue links config load failures to their catalog entry.
func withConfigIssue(err error) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.IssueId == 0 {
			ae.IssueId = issue.ConfigLoadFailedId
		}
		return ae
	}
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}
