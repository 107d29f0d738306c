// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path"
	"runtime"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// IsWindows reports whether the launcher runs on Windows.
func IsWindows() bool { return runtime.GOOS == Windows }

// VenvBinDir returns the name of the directory holding executables inside a
// virtual environment for the given GOOS.
func VenvBinDir(goos string) string {
	if goos == Windows {
		return "Scripts"
	}
	return "bin"
}

// DefaultActivationScript returns the slash-separated activation resource
// path relative to the anchor directory for a virtualenv named venvDir.
func DefaultActivationScript(goos, venvDir string) string {
	return path.Join(venvDir, VenvBinDir(goos), "activate")
}

// DefaultInterpreter returns the interpreter executable name used when none
// is configured.
func DefaultInterpreter(goos string) string {
	if goos == Windows {
		return "python"
	}
	return "python3"
}
