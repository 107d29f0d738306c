// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"io"
	"os/exec"
)

// handoffIO carries the standard streams the downstream inherits.
type handoffIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// runWait starts the downstream as a child process and waits for it.
// When ctx is cancelled the child is interrupted, not killed, so an
// interactive downstream can decide what an interrupt means.
func runWait(ctx context.Context, path string, args []string, dir string, env []string, stdio handoffIO) *Result {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr
	cmd.Cancel = func() error { return interruptProcess(cmd.Process) }

	err := cmd.Run()
	if cmd.ProcessState != nil {
		return &Result{ExitCode: exitCodeFromState(cmd.ProcessState)}
	}
	return errorResult(handoffError(path, err))
}
