// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/issue"
	"github.com/clai-dev/clai/internal/launcher"
)

type (
	// LaunchFunc runs a launch. launcher.Launch in production.
	LaunchFunc func(ctx context.Context, cfg launcher.Config, opts ...launcher.Option) *launcher.Result

	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and reaches the process environment only through it.
	App struct {
		Config  config.Provider
		Launch  LaunchFunc
		getwd   func() (string, error)
		environ func() []string
		stdin   io.Reader
		stdout  io.Writer
		stderr  io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  config.Provider
		Launch  LaunchFunc
		Getwd   func() (string, error)
		Environ func() []string
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Launch == nil {
		deps.Launch = launcher.Launch
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	if deps.Environ == nil {
		deps.Environ = os.Environ
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	return &App{
		Config:  deps.Config,
		Launch:  deps.Launch,
		getwd:   deps.Getwd,
		environ: deps.Environ,
		stdin:   deps.Stdin,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

// loadConfig loads configuration, honoring an explicit --config path.
func (a *App) loadConfig(ctx context.Context, path string) (*config.Config, string, error) {
	return a.Config.LoadWithSource(ctx, config.LoadOptions{ConfigFilePath: path})
}

// reportError prints err for the user and converts it to an ExitError.
// With verbose set, the matching catalog page is rendered below it.
func (a *App) reportError(err error, verbose bool, scheme config.ColorScheme) *ExitError {
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	code := launcherExitCode(err)
	var ae *issue.ActionableError
	if verbose && errors.As(err, &ae) && ae.Issue != 0 {
		if page := issue.Get(ae.Issue); page != nil {
			if rendered, renderErr := page.Render(string(scheme)); renderErr == nil {
				fmt.Fprint(a.stderr, rendered)
			}
		}
	}
	return &ExitError{Code: code, Err: err}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
