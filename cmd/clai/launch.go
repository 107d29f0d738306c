// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/issue"
	"github.com/clai-dev/clai/internal/launcher"
	"github.com/clai-dev/clai/pkg/types"

	"github.com/spf13/cobra"
)

// launchFlags override configuration for a single launch.
type launchFlags struct {
	dryRun       bool
	noForwardCwd bool
	anchor       string
	handoff      string
	activation   string
}

func (f *launchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the launch plan without running anything")
	cmd.Flags().BoolVar(&f.noForwardCwd, "no-forward-cwd", false, "do not pass the caller's directory to the module")
	cmd.Flags().StringVar(&f.anchor, "anchor", "", "anchor resolution: executable or cwd")
	cmd.Flags().StringVar(&f.handoff, "handoff", "", "handoff mode: wait or exec")
	cmd.Flags().StringVar(&f.activation, "activation", "", "activation backend: virtual or native")
}

// apply copies explicitly set flags onto cfg and validates them.
func (f *launchFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	var errs []error
	if cmd.Flags().Changed("anchor") {
		cfg.Anchor = config.AnchorMode(f.anchor)
		errs = append(errs, cfg.Anchor.Validate())
	}
	if cmd.Flags().Changed("handoff") {
		cfg.Handoff = config.HandoffMode(f.handoff)
		errs = append(errs, cfg.Handoff.Validate())
	}
	if cmd.Flags().Changed("activation") {
		cfg.Activation = config.ActivationMode(f.activation)
		errs = append(errs, cfg.Activation.Validate())
	}
	if f.noForwardCwd {
		cfg.ForwardCallerDir = false
	}
	return errors.Join(errs...)
}

func runLaunch(cmd *cobra.Command, app *App, flags *rootFlags, lf *launchFlags, args []string) error {
	// Captured before anything else so it survives every directory change.
	callerDir, err := app.getwd()
	if err != nil {
		return silenced(cmd, app.reportError(issue.WrapWithOperation(err, "determine working directory"), flags.verbose, config.ColorSchemeAuto))
	}
	environ := app.environ()

	ctx := cmd.Context()
	cfg, source, err := app.loadConfig(ctx, flags.configPath)
	if err != nil {
		return silenced(cmd, app.reportError(err, flags.verbose, config.ColorSchemeAuto))
	}
	if err := lf.apply(cmd, cfg); err != nil {
		return err
	}

	verbose := flags.verbose || cfg.UI.Verbose
	logger := newLogger(app.stderr, verbose)
	if source != "" {
		logger.Debug("loaded configuration", "path", source)
	}

	flagValue, _ := launcher.LookupEnv(environ, cfg.EnvFlag)
	envActive := flagValue != ""
	logger.Debug("environment flag", "name", cfg.EnvFlag, "active", envActive)

	anchor, err := launcher.ResolveAnchor(cfg.Anchor, cfg.AnchorDir.String(), callerDir)
	if err != nil {
		return silenced(cmd, app.reportError(err, verbose, cfg.UI.ColorScheme))
	}

	lc := launcher.NewConfig(cfg)
	lc.AnchorDir = anchor
	lc.CallerDir = callerDir
	lc.EnvActive = envActive
	lc.Environ = environ
	lc.ExtraArgs = args
	lc.Stdin = app.stdin
	lc.Stdout = app.stdout
	lc.Stderr = app.stderr

	if lf.dryRun {
		plan, err := launcher.NewPlan(lc)
		if err != nil {
			return silenced(cmd, app.reportError(err, verbose, cfg.UI.ColorScheme))
		}
		renderPlan(app.stdout, plan)
		return nil
	}

	result := app.Launch(ctx, lc, launcher.WithLogger(logger))
	if result.Error != nil {
		return silenced(cmd, app.reportError(result.Error, verbose, cfg.UI.ColorScheme))
	}
	if !result.ExitCode.IsSuccess() {
		// The downstream already reported its own failure.
		return silenced(cmd, &ExitError{Code: result.ExitCode})
	}
	return nil
}

// silenced stops cobra from printing err and the usage text again.
func silenced(cmd *cobra.Command, err *ExitError) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return err
}

// launcherExitCode returns the status an error should exit with.
func launcherExitCode(err error) types.ExitCode {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Code()
	}
	return types.ExitFailure
}

func renderPlan(w io.Writer, plan *launcher.Plan) {
	row := func(key, value string) {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(key+":"), value)
	}

	fmt.Fprintln(w, TitleStyle.Render("Launch plan"))
	fmt.Fprintln(w)
	row("anchor", plan.Anchor)
	row("caller dir", plan.CallerDir)
	row("state", plan.State.String())
	if plan.ActivationScript != "" {
		row("activation", fmt.Sprintf("%s %s", plan.ActivationScript, SubtitleStyle.Render("("+string(plan.Activation)+")")))
	} else {
		row("activation", SubtitleStyle.Render("skipped, environment already active"))
	}
	row("work dir", plan.WorkDir)
	row("command", CmdStyle.Render(plan.String()))
	row("handoff", string(plan.Handoff))
}
