// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"
)

func TestExitError(t *testing.T) {
	t.Parallel()

	bare := &ExitError{Code: 3}
	if bare.Error() != "exit status 3" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "exit status 3")
	}
	if bare.Unwrap() != nil {
		t.Error("Unwrap() of a bare ExitError should be nil")
	}

	cause := errors.New("boom")
	wrapped := &ExitError{Code: 1, Err: cause}
	if wrapped.Error() != "boom" || !errors.Is(wrapped, cause) {
		t.Errorf("wrapped ExitError = %q, want to wrap %v", wrapped.Error(), cause)
	}
}
