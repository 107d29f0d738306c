// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitFailure is the generic failure status used for launcher-side errors.
	ExitFailure ExitCode = 1
	// ExitNotExecutable is the shell convention for "found but not executable".
	ExitNotExecutable ExitCode = 126
	// ExitCommandNotFound is the shell convention for "command not found".
	ExitCommandNotFound ExitCode = 127
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// IsCommandNotFound reports whether the code is the shell's "command not found" status.
func (c ExitCode) IsCommandNotFound() bool { return c == ExitCommandNotFound }

// IsNotExecutable reports whether the code is the shell's "not executable" status.
func (c ExitCode) IsNotExecutable() bool { return c == ExitNotExecutable }

// Normalize folds out-of-range codes into 0-255 the way POSIX wait statuses do.
// Negative codes (e.g. -1 for a signal-killed process) become ExitFailure.
func (c ExitCode) Normalize() ExitCode {
	if c < 0 {
		return ExitFailure
	}
	return c & 0xff
}

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
