// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dockerino/dockerino/internal/config"
	"github.com/dockerino/dockerino/internal/issue"
)

// newConfigCommand creates the `dockerino config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dockerino configuration",
		Long: `Manage dockerino configuration.

Configuration is stored in:
  - Linux: $XDG_CONFIG_HOME/dockerino/config.cue (~/.config/dockerino/config.cue)
  - macOS: ~/Library/Application Support/dockerino/config.cue
  - Windows: %AppData%\dockerino\config.cue

Every key can be overridden with a DOCKERINO_ environment variable, for
example DOCKERINO_SOCKET_PATH or DOCKERINO_BUILD_COMPRESSION_LEVEL.`,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: app.run(func(_ *cobra.Command, _ []string) error {
			showConfig(app)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Create a default configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			explicit, _ := cmd.Flags().GetString("config")
			path, created, err := config.CreateDefaultConfig(explicit)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("create configuration").
					WithResource(path).
					WithIssue(issue.ConfigLoadFailedId).
					Wrap(err).
					BuildError()
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show configuration file paths",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: app.run(func(_ *cobra.Command, _ []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}

			fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", defaultPath)
			if app.session.cfgPath != "" && app.session.cfgPath != defaultPath {
				fmt.Fprintf(app.stdout, "Loaded from: %s\n", app.session.cfgPath)
			}
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration (CUE unless --output is given)",
		Args:  cobra.NoArgs,
		RunE: app.run(func(_ *cobra.Command, _ []string) error {
			if app.output() == config.OutputTable {
				fmt.Fprint(app.stdout, config.GenerateCUE(app.session.cfg))
				return nil
			}
			return writeStructured(app.stdout, app.output(), "config", app.session.cfg)
		}),
	})

	return cfgCmd
}

func showConfig(app *App) {
	cfg := app.session.cfg
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	if app.session.cfgPath != "" {
		fmt.Fprintf(out, "%s: %s\n", KeyStyle.Render("Config file"), app.session.cfgPath)
	} else {
		fmt.Fprintf(out, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	value := func(key, v string) {
		if v == "" {
			v = SubtitleStyle.Render("(unset)")
		} else {
			v = SuccessStyle.Render(v)
		}
		fmt.Fprintf(out, "%s: %s\n", KeyStyle.Render(key), v)
	}

	value("socket_path", cfg.SocketPath.String())
	value("api_version", cfg.APIVersion.String())
	value("max_idle_conns_per_host", strconv.Itoa(cfg.MaxIdleConnsPerHost))
	value("log_level", cfg.LogLevel.String())
	value("output", cfg.Output.String())
	value("build.compression_level", strconv.Itoa(cfg.Build.CompressionLevel))
	value("registry.server_address", cfg.Registry.ServerAddress)
}
