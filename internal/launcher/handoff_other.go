// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package launcher

import (
	"errors"
	"os"

	"github.com/clai-dev/clai/pkg/types"
)

const execSupported = false

var errExecUnsupported = errors.New("process replacement is not supported on this platform")

func execReplace(string, []string, []string) error {
	return errExecUnsupported
}

func interruptProcess(p *os.Process) error {
	return p.Kill()
}

func exitCodeFromState(state *os.ProcessState) types.ExitCode {
	return types.ExitCode(state.ExitCode()).Normalize()
}
