// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"fmt"
	"io"

	"github.com/clai-dev/clai/internal/config"
)

type (
	// ActivationRequest describes one activation run.
	ActivationRequest struct {
		// Script is the absolute path of the activation script.
		Script string
		// Dir is the directory the script runs in (the anchor).
		Dir string
		// Environ is the environment before activation.
		Environ []string
		// Stdout and Stderr receive anything the script prints.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Activator sources an activation script and returns the resulting
	// environment as KEY=VALUE entries. A script that exits non-zero is
	// reported as *ScriptExitError.
	Activator interface {
		Name() string
		Activate(ctx context.Context, req ActivationRequest) ([]string, error)
	}
)

// NewActivator returns the activator for mode.
func NewActivator(mode config.ActivationMode) (Activator, error) {
	switch mode {
	case config.ActivationVirtual, "":
		return NewVirtualActivator(), nil
	case config.ActivationNative:
		return NewNativeActivator(), nil
	default:
		return nil, fmt.Errorf("unknown activation backend: %w", mode.Validate())
	}
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
