// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/interpreter"
	"github.com/clai-dev/clai/internal/issue"
)

// Check is one preflight result.
type Check struct {
	Name   string
	OK     bool
	Detail string
	// Issue explains the failure; zero when OK.
	Issue issue.Id
}

// Preflight inspects everything Launch depends on without activating or
// running anything. The interpreter is looked up on the PATH the activation
// script would produce: its own directory is put in front.
func Preflight(ctx context.Context, cfg Config) []Check {
	plan, err := NewPlan(cfg)
	if err != nil {
		return []Check{{Name: "anchor", Detail: err.Error(), Issue: issue.AnchorUnresolvedId}}
	}

	var checks []Check
	add := func(name string, err error, okDetail string, id issue.Id) bool {
		c := Check{Name: name, OK: err == nil, Detail: okDetail}
		if err != nil {
			c.Detail = err.Error()
			c.Issue = id
		}
		checks = append(checks, c)
		return c.OK
	}

	add("anchor", checkDir(plan.Anchor), plan.Anchor, issue.AnchorUnresolvedId)

	env := EnvToMap(cfg.Environ)
	if plan.State == Activated {
		add("activation script", nil, "skipped, environment already active", 0)
	} else {
		add("activation script", checkFile(plan.ActivationScript), plan.ActivationScript, issue.ActivationScriptNotFoundId)
		if plan.Activation == config.ActivationNative {
			shell, err := NewNativeActivator().CheckShell(ctx, cfg.Environ)
			add("native shell", err, shell+" supports 'env -0'", issue.ShellNotFoundId)
		}
		binDir := filepath.Dir(plan.ActivationScript)
		if path := env["PATH"]; path != "" {
			env["PATH"] = binDir + string(os.PathListSeparator) + path
		} else {
			env["PATH"] = binDir
		}
	}

	workDirOK := add("work directory", checkDir(plan.WorkDir), plan.WorkDir, issue.WorkDirNotFoundId)
	if workDirOK {
		module, err := findModule(plan.WorkDir, cfg.Module)
		add("module", err, module, issue.ModuleNotFoundId)
	}

	lookupDir := plan.WorkDir
	if !workDirOK {
		lookupDir = plan.Anchor
	}
	path, err := interpreter.Lookup(lookupDir, plan.Interpreter, EnvToSlice(env))
	if !add("interpreter", err, path, issue.InterpreterNotFoundId) {
		return checks
	}

	if strings.TrimSpace(cfg.MinInterpreterVersion) != "" {
		v, err := interpreter.Version(ctx, path, EnvToSlice(env))
		detail := ""
		if err == nil {
			detail = v.String() + " satisfies " + cfg.MinInterpreterVersion
			err = interpreter.Check(v, cfg.MinInterpreterVersion)
		}
		add("interpreter version", err, detail, issue.InterpreterVersionId)
	}
	return checks
}

// Failed reports whether any check failed.
func Failed(checks []Check) bool {
	for _, c := range checks {
		if !c.OK {
			return true
		}
	}
	return false
}

// findModule locates the source of a dotted module path under dir, either
// as <path>.py or as a package directory with __main__.py.
func findModule(dir, module string) (string, error) {
	rel := filepath.Join(strings.Split(module, ".")...)
	candidates := []string{
		filepath.Join(dir, rel+".py"),
		filepath.Join(dir, rel, "__main__.py"),
	}
	var firstErr error
	for _, c := range candidates {
		err := checkFile(c)
		if err == nil {
			return c, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}
