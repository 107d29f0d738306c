// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/issue"
	"github.com/clai-dev/clai/internal/launcher"
	"github.com/clai-dev/clai/pkg/types"

	"github.com/spf13/cobra"
)

func newDoctorCommand(app *App, flags *rootFlags) *cobra.Command {
	var anchorMode string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the virtual environment, module and interpreter",
		Long: `Check everything a launch depends on without running it.

The activation script is not executed; the interpreter is looked up on the
PATH activation would produce and its version is compared against
'min_interpreter_version'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, app, flags, anchorMode)
		},
	}
	cmd.Flags().StringVar(&anchorMode, "anchor", "", "anchor resolution: executable or cwd")
	return cmd
}

func runDoctor(cmd *cobra.Command, app *App, flags *rootFlags, anchorMode string) error {
	callerDir, err := app.getwd()
	if err != nil {
		return silenced(cmd, app.reportError(issue.WrapWithOperation(err, "determine working directory"), flags.verbose, config.ColorSchemeAuto))
	}
	environ := app.environ()

	cfg, source, err := app.loadConfig(cmd.Context(), flags.configPath)
	if err != nil {
		return silenced(cmd, app.reportError(err, flags.verbose, config.ColorSchemeAuto))
	}
	if anchorMode != "" {
		cfg.Anchor = config.AnchorMode(anchorMode)
		if err := cfg.Anchor.Validate(); err != nil {
			return err
		}
	}
	verbose := flags.verbose || cfg.UI.Verbose

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("clai doctor"))
	fmt.Fprintln(w)
	if source != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("config:"), source)
	} else {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("config:"), SubtitleStyle.Render("(using defaults)"))
	}

	flagValue, _ := launcher.LookupEnv(environ, cfg.EnvFlag)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(cfg.EnvFlag+":"), envFlagDetail(flagValue))
	fmt.Fprintln(w)

	anchor, err := launcher.ResolveAnchor(cfg.Anchor, cfg.AnchorDir.String(), callerDir)
	if err != nil {
		renderChecks(w, []launcher.Check{{Name: "anchor", Detail: err.Error(), Issue: issue.AnchorUnresolvedId}}, verbose)
		return silenced(cmd, &ExitError{Code: types.ExitFailure})
	}

	lc := launcher.NewConfig(cfg)
	lc.AnchorDir = anchor
	lc.CallerDir = callerDir
	lc.EnvActive = flagValue != ""
	lc.Environ = environ

	checks := launcher.Preflight(cmd.Context(), lc)
	renderChecks(w, checks, verbose)
	if launcher.Failed(checks) {
		return silenced(cmd, &ExitError{Code: types.ExitFailure})
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, SuccessStyle.Render("Ready to launch."))
	return nil
}

func envFlagDetail(value string) string {
	if value == "" {
		return SubtitleStyle.Render("not set, activation will run")
	}
	return value + " " + SubtitleStyle.Render("(already active)")
}

func renderChecks(w io.Writer, checks []launcher.Check, verbose bool) {
	for _, c := range checks {
		mark := SuccessStyle.Render("✓")
		if !c.OK {
			mark = ErrorStyle.Render("✗")
		}
		fmt.Fprintf(w, "  %s %s %s\n", mark, labelStyle.Render(c.Name), c.Detail)
		if c.OK || c.Issue == 0 {
			continue
		}
		if page := issue.Get(c.Issue); page != nil {
			fmt.Fprintf(w, "      %s\n", WarningStyle.Render(page.Title()))
			if verbose {
				for _, link := range append(page.DocLinks(), page.ExtLinks()...) {
					fmt.Fprintf(w, "      %s\n", SubtitleStyle.Render(string(link)))
				}
			}
		}
	}
}
