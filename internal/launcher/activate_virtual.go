// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clai-dev/clai/pkg/types"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualActivator sources the activation script with the embedded
// mvdan/sh interpreter and collects the exported variables it leaves behind.
type VirtualActivator struct{}

// NewVirtualActivator creates a VirtualActivator.
func NewVirtualActivator() *VirtualActivator {
	return &VirtualActivator{}
}

// Name returns the backend name.
func (a *VirtualActivator) Name() string { return "virtual" }

// Activate runs '. <script>' in a fresh runner.
func (a *VirtualActivator) Activate(ctx context.Context, req ActivationRequest) ([]string, error) {
	quoted, err := syntax.Quote(req.Script, syntax.LangBash)
	if err != nil {
		return nil, fmt.Errorf("failed to quote %s: %w", req.Script, err)
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(". "+quoted+"\n"), "activate")
	if err != nil {
		return nil, fmt.Errorf("failed to parse activation: %w", err)
	}

	runner, err := interp.New(
		interp.Dir(req.Dir),
		interp.Env(expand.ListEnviron(req.Environ...)),
		interp.StdIO(nil, writerOrDiscard(req.Stdout), writerOrDiscard(req.Stderr)),
		interp.ExecHandlers(a.execHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return nil, &ScriptExitError{Script: req.Script, Code: types.ExitCode(exitStatus)}
		}
		return nil, fmt.Errorf("activation script execution failed: %w", err)
	}

	env := make(map[string]string, len(runner.Vars))
	for name, vr := range runner.Vars {
		if vr.Exported && vr.IsSet() && vr.Kind == expand.String {
			env[name] = vr.Str
		}
	}
	return EnvToSlice(env), nil
}

// execHandler absorbs commands the embedded interpreter has no builtin for
// but activation scripts routinely call for their side effects on an
// interactive shell.
func (a *VirtualActivator) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			switch args[0] {
			case "hash", "rehash":
				return nil
			}
		}
		return next(ctx, args)
	}
}
