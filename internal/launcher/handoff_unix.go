// SPDX-License-Identifier: MPL-2.0

//go:build unix

package launcher

import (
	"os"
	"syscall"

	"github.com/clai-dev/clai/pkg/types"
)

// execSupported reports whether HandoffExec can replace the process.
const execSupported = true

// execReplace replaces the current process with path. It only returns on
// failure.
func execReplace(path string, args []string, env []string) error {
	argv := append([]string{path}, args...)
	return syscall.Exec(path, argv, env)
}

func interruptProcess(p *os.Process) error {
	return p.Signal(syscall.SIGINT)
}

// exitCodeFromState maps a signal death to the shell convention 128+signal.
func exitCodeFromState(state *os.ProcessState) types.ExitCode {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return types.ExitCode(128 + int(ws.Signal()))
	}
	return types.ExitCode(state.ExitCode()).Normalize()
}
