// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/clai-dev/clai/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags are the flags shared by every command.
type rootFlags struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}
	lf := &launchFlags{}

	rootCmd := &cobra.Command{
		Use:   "clai [flags] [-- module args...]",
		Short: "Launch the CLAI shell inside its virtual environment",
		Long: TitleStyle.Render("clai") + SubtitleStyle.Render(" - launch the CLAI shell") + `

clai activates the virtual environment that lives next to it (unless one
is already active), moves to the project directory one level above and
runs 'python -m CLAI.start_shell', passing along the directory you ran
it from.

` + SubtitleStyle.Render("Examples:") + `
  clai                      Start the shell for the current directory
  clai --dry-run            Show what would run without running it
  clai -- --model local     Pass extra arguments to the module
  clai doctor               Check the virtual environment and interpreter
  clai config show          Show the effective configuration`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, app, flags, lf, args)
		},
	}
	// Everything after the first positional argument belongs to the module.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/clai/config.cue)")
	lf.register(rootCmd)

	rootCmd.AddCommand(newDoctorCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the root command and exits with the resulting status.
// This is called by main.main().
func Execute() {
	os.Exit(int(execute(context.Background(), NewApp(Dependencies{}), os.Args[1:])))
}

// execute runs the command tree through fang and returns the exit status.
func execute(ctx context.Context, app *App, args []string) types.ExitCode {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	)
	return exitCodeFor(err)
}

// handleError prints errors fang receives, except ExitErrors: those were
// already reported, or carry the downstream's own status.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// exitCodeFor maps the error returned by the command tree to a process status.
func exitCodeFor(err error) types.ExitCode {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return types.ExitFailure
	}
	code := exitErr.Code
	if code.Validate() != nil {
		code = code.Normalize()
	}
	if code.IsSuccess() {
		return types.ExitFailure
	}
	return code
}
