// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/clai-dev/clai/internal/issue"
	"github.com/clai-dev/clai/pkg/types"
)

var (
	// ErrActivationFailed is returned when the activation script is missing,
	// cannot be parsed or exits with a non-zero status.
	ErrActivationFailed = errors.New("virtual environment activation failed")

	// ErrWorkDirNotFound is returned when the downstream working directory does not exist.
	ErrWorkDirNotFound = errors.New("working directory not found")

	// ErrInterpreterNotFound is returned when the interpreter is not on the activated PATH.
	ErrInterpreterNotFound = errors.New("interpreter not found")

	// ErrAnchorUnresolved is returned when the anchor directory cannot be determined.
	ErrAnchorUnresolved = errors.New("anchor directory could not be resolved")

	// ErrInterpreterVersion is returned when the interpreter fails the version gate.
	ErrInterpreterVersion = errors.New("interpreter version check failed")

	// ErrHandoffFailed is returned when the downstream process cannot be started.
	ErrHandoffFailed = errors.New("handoff to downstream failed")
)

// ScriptExitError reports an activation script that ran but exited non-zero.
type ScriptExitError struct {
	Script string
	Code   types.ExitCode
}

func (e *ScriptExitError) Error() string {
	return fmt.Sprintf("activation script %s exited with status %d", e.Script, e.Code)
}

func activationMissingError(script string, err error) error {
	return issue.NewErrorContext().
		WithOperation("activate virtual environment").
		WithResource(script).
		WithSuggestions(
			"Create the environment next to the launcher with 'python3 -m venv venv'",
			"Point 'activation_script' in config.cue at an existing activate script",
		).
		WithIssue(issue.ActivationScriptNotFoundId).
		Wrap(fmt.Errorf("%w: %w", ErrActivationFailed, err)).
		BuildError()
}

func activationFailedError(script string, err error) error {
	ec := issue.NewErrorContext().
		WithOperation("activate virtual environment").
		WithResource(script).
		WithSuggestion("Run '. " + script + "' in a shell to see the failure").
		WithIssue(issue.ActivationFailedId).
		Wrap(fmt.Errorf("%w: %w", ErrActivationFailed, err))

	var se *ScriptExitError
	if errors.As(err, &se) {
		ec = ec.WithExitCode(se.Code)
	}
	if errors.Is(err, ErrShellNotFound) {
		ec = ec.WithIssue(issue.ShellNotFoundId).
			WithSuggestion("Install a POSIX shell or set 'activation' to \"virtual\"")
	}
	return ec.BuildError()
}

func workDirError(dir string, err error) error {
	return issue.NewErrorContext().
		WithOperation("change to working directory").
		WithResource(dir).
		WithSuggestion("Check 'work_dir' in config.cue; it is resolved against the anchor directory").
		WithIssue(issue.WorkDirNotFoundId).
		Wrap(fmt.Errorf("%w: %w", ErrWorkDirNotFound, err)).
		BuildError()
}

func interpreterNotFoundError(name string, err error) error {
	return issue.NewErrorContext().
		WithOperation("locate interpreter").
		WithResource(name).
		WithSuggestions(
			"Make sure the virtual environment contains '"+name+"'",
			"Set 'interpreter' in config.cue to an absolute path",
		).
		WithIssue(issue.InterpreterNotFoundId).
		Wrap(fmt.Errorf("%w: %w", ErrInterpreterNotFound, err)).
		BuildError()
}

func interpreterVersionError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("verify interpreter version").
		WithResource(path).
		WithSuggestions(
			"Recreate the virtual environment with a newer Python",
			"Relax 'min_interpreter_version' or disable 'verify_interpreter'",
		).
		WithIssue(issue.InterpreterVersionId).
		Wrap(fmt.Errorf("%w: %w", ErrInterpreterVersion, err)).
		BuildError()
}

func handoffError(path string, err error) error {
	code := handoffExitCode(err)
	ec := issue.NewErrorContext().
		WithOperation("start downstream module").
		WithResource(path).
		WithIssue(issue.DownstreamFailedId).
		WithExitCode(code)
	switch {
	case code.IsCommandNotFound():
		ec.WithSuggestions(
			"The interpreter disappeared after it was resolved; recreate the virtual environment",
			"Run 'clai doctor' to check the interpreter",
		)
	case code.IsNotExecutable():
		ec.WithSuggestion("Make the interpreter executable, e.g. chmod +x " + path)
	}
	return ec.
		Wrap(fmt.Errorf("%w: %w", ErrHandoffFailed, err)).
		BuildError()
}

// handoffExitCode follows the shell convention for a program that could not
// be started: 127 when it is missing, 126 when it cannot be executed.
func handoffExitCode(err error) types.ExitCode {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return types.ExitCommandNotFound
	case errors.Is(err, fs.ErrPermission):
		return types.ExitNotExecutable
	default:
		return types.ExitFailure
	}
}
