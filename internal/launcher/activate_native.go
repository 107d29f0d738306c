// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/clai-dev/clai/pkg/types"
)

// nativeActivation sources $1 with its output sent to stderr, then dumps the
// resulting environment NUL-separated on stdout.
const nativeActivation = `. "$1" >&2 || exit $?
exec env -0`

// posixShells are accepted from $SHELL; anything else falls back to bash or sh.
var posixShells = map[string]bool{
	"sh": true, "bash": true, "dash": true, "zsh": true, "ksh": true, "mksh": true, "ash": true,
}

// envProbeVar is set while checking that the shell can dump its environment.
const envProbeVar = "CLAI_ENV_PROBE"

var (
	// ErrShellNotFound is returned when no POSIX shell is available for native activation.
	ErrShellNotFound = errors.New("no POSIX shell found")
	// ErrEnvDumpUnsupported is returned when the host 'env' cannot print a
	// NUL-separated environment.
	ErrEnvDumpUnsupported = errors.New("'env -0' is not supported")
)

// NativeActivator sources the activation script with the host shell.
type NativeActivator struct {
	// Shell overrides shell detection when set.
	Shell string
}

// NewNativeActivator creates a NativeActivator that detects the host shell.
func NewNativeActivator() *NativeActivator {
	return &NativeActivator{}
}

// Name returns the backend name.
func (a *NativeActivator) Name() string { return "native" }

// Activate runs the host shell and parses the environment it prints.
func (a *NativeActivator) Activate(ctx context.Context, req ActivationRequest) ([]string, error) {
	shell, err := a.getShell(req.Environ)
	if err != nil {
		return nil, err
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, shell, "-c", nativeActivation, "clai-activate", req.Script)
	cmd.Dir = req.Dir
	cmd.Env = req.Environ
	cmd.Stdout = &stdout
	cmd.Stderr = writerOrDiscard(req.Stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ScriptExitError{Script: req.Script, Code: types.ExitCode(exitErr.ExitCode()).Normalize()}
		}
		return nil, fmt.Errorf("failed to run %s: %w", shell, err)
	}
	return parseNulEnviron(stdout.Bytes()), nil
}

// CheckShell verifies that the host shell can run native activation, which
// reads the sourced environment back through 'env -0'. It returns the shell
// that would be used.
func (a *NativeActivator) CheckShell(ctx context.Context, environ []string) (string, error) {
	shell, err := a.getShell(environ)
	if err != nil {
		return "", err
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, shell, "-c", "exec env -0")
	cmd.Env = append(slices.Clone(environ), envProbeVar+"=1")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return shell, fmt.Errorf("%w by %s: %w", ErrEnvDumpUnsupported, shell, err)
	}
	if _, ok := LookupEnv(parseNulEnviron(stdout.Bytes()), envProbeVar); !ok {
		return shell, fmt.Errorf("%w by %s: no NUL-separated output", ErrEnvDumpUnsupported, shell)
	}
	return shell, nil
}

// getShell prefers $SHELL from the base environment when it is a POSIX
// shell, then bash, then sh.
func (a *NativeActivator) getShell(environ []string) (string, error) {
	if a.Shell != "" {
		return a.Shell, nil
	}
	if shell, ok := LookupEnv(environ, "SHELL"); ok && posixShells[strings.TrimSuffix(filepath.Base(shell), ".exe")] {
		if path, err := exec.LookPath(shell); err == nil {
			return path, nil
		}
	}
	for _, name := range []string{"bash", "sh"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrShellNotFound
}

func parseNulEnviron(data []byte) []string {
	var env []string
	for entry := range bytes.SplitSeq(data, []byte{0}) {
		if bytes.IndexByte(entry, '=') > 0 {
			env = append(env, string(entry))
		}
	}
	return env
}
