// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/clai-dev/clai/internal/config"

	"mvdan.cc/sh/v3/syntax"
)

// Plan is a fully resolved launch, computed before anything runs.
type Plan struct {
	// Anchor is the absolute anchor directory.
	Anchor string
	// CallerDir is the directory the launcher was invoked from.
	CallerDir string
	// State is the activation state at the start of the launch.
	State ActivationState
	// ActivationScript is the absolute activation script path. Empty when
	// State is already Activated.
	ActivationScript string
	// Activation is the activation backend.
	Activation config.ActivationMode
	// WorkDir is the absolute directory the downstream runs in.
	WorkDir string
	// Interpreter is the interpreter as configured, resolved at handoff.
	Interpreter string
	// Args are the interpreter arguments: -m <module> [caller dir] [extra...].
	Args []string
	// Handoff is the handoff mode.
	Handoff config.HandoffMode
}

// NewPlan resolves cfg into a Plan. It does not touch the filesystem.
func NewPlan(cfg Config) (*Plan, error) {
	if !filepath.IsAbs(cfg.AnchorDir) {
		return nil, anchorError(cfg.AnchorDir, fmt.Errorf("anchor %q is not absolute", cfg.AnchorDir))
	}
	anchor := filepath.Clean(cfg.AnchorDir)

	p := &Plan{
		Anchor:      anchor,
		CallerDir:   cfg.CallerDir,
		State:       NotActivated,
		Activation:  cfg.Activation,
		WorkDir:     cfg.WorkDir.ResolveAgainst(anchor),
		Interpreter: cfg.Interpreter,
		Handoff:     cfg.Handoff,
	}
	if p.Activation == "" {
		p.Activation = config.ActivationVirtual
	}
	if p.Handoff == "" {
		p.Handoff = config.HandoffWait
	}
	if cfg.EnvActive {
		p.State = Activated
	} else {
		p.ActivationScript = cfg.ActivationScript.ResolveAgainst(anchor)
	}

	p.Args = []string{"-m", cfg.Module}
	if cfg.ForwardCallerDir {
		p.Args = append(p.Args, cfg.CallerDir)
	}
	p.Args = append(p.Args, cfg.ExtraArgs...)
	return p, nil
}

// Command returns the downstream command line with the interpreter as configured.
func (p *Plan) Command() []string {
	return append([]string{p.Interpreter}, p.Args...)
}

// String renders the command line quoted for a POSIX shell.
func (p *Plan) String() string {
	parts := p.Command()
	for i, part := range parts {
		if quoted, err := syntax.Quote(part, syntax.LangPOSIX); err == nil {
			parts[i] = quoted
		}
	}
	return strings.Join(parts, " ")
}
