// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `clai config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage clai configuration",
		Long: `Manage clai configuration.

Configuration is stored in:
  - Linux: ~/.config/clai/config.cue
  - macOS: ~/Library/Application Support/clai/config.cue
  - Windows: %APPDATA%\clai\config.cue

Any field can be overridden with a CLAI_ environment variable, e.g.
CLAI_MODULE or CLAI_UI_VERBOSE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, flags, format)
		},
	}
	showCmd.Flags().StringVar(&format, "format", config.FormatCUE, "output format: cue, toml or json")
	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, flags)
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, flags *rootFlags, format string) error {
	cfg, source, err := app.loadConfig(cmd.Context(), flags.configPath)
	if err != nil {
		return silenced(cmd, app.reportError(err, flags.verbose, config.ColorSchemeAuto))
	}

	out, err := config.Encode(cfg, format)
	if err != nil {
		return err
	}

	// Only the CUE form gets a header so toml/json stay machine-readable.
	if format == config.FormatCUE || format == "" {
		if source != "" {
			fmt.Fprintf(app.stdout, "// source: %s\n", source)
		} else {
			fmt.Fprintln(app.stdout, "// source: built-in defaults")
		}
	}
	_, err = app.stdout.Write(out)
	return err
}

func initConfig(cmd *cobra.Command, app *App, flags *rootFlags) error {
	path, err := config.CreateDefaultConfig()
	if err != nil {
		target, _ := config.FilePath()
		return silenced(cmd, app.reportError(issue.WrapWithContext(err, "create config", target), flags.verbose, config.ColorSchemeAuto))
	}
	fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App, flags *rootFlags) error {
	if flags.configPath != "" {
		fmt.Fprintln(app.stdout, flags.configPath)
		return nil
	}
	path, err := config.FilePath()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, path)
	return nil
}
