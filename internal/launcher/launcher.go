// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/interpreter"
	"github.com/clai-dev/clai/internal/issue"
	"github.com/clai-dev/clai/pkg/types"

	"github.com/charmbracelet/log"
)

type (
	// Config is everything a launch needs. The CLI fills it from the loaded
	// configuration plus what it observed before any directory change.
	Config struct {
		// AnchorDir is the absolute anchor directory (see ResolveAnchor).
		AnchorDir string
		// CallerDir is the working directory the launcher was invoked from.
		CallerDir string
		// EnvActive is true when the environment flag was set at startup.
		EnvActive bool
		// Environ is the base environment as KEY=VALUE entries.
		Environ []string

		// ActivationScript is resolved against AnchorDir when relative.
		ActivationScript types.FilesystemPath
		// Activation selects the activation backend.
		Activation config.ActivationMode
		// WorkDir is resolved against AnchorDir when relative.
		WorkDir types.FilesystemPath
		// Module is run with '-m'.
		Module string
		// Interpreter is looked up on the activated PATH.
		Interpreter string
		// ForwardCallerDir passes CallerDir as the first module argument.
		ForwardCallerDir bool
		// ExtraArgs follow the caller dir.
		ExtraArgs []string
		// Handoff selects wait or exec.
		Handoff config.HandoffMode
		// VerifyInterpreter enforces MinInterpreterVersion before handoff.
		VerifyInterpreter bool
		// MinInterpreterVersion is a semver constraint.
		MinInterpreterVersion string

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result is the outcome of a launch. ExitCode is the downstream's own
	// status, or the status of the step that failed. Error is nil when the
	// downstream ran, whatever its status.
	Result struct {
		ExitCode types.ExitCode
		Error    error
	}

	// Option configures Launch.
	Option func(*options)

	options struct {
		logger    *log.Logger
		activator Activator
	}
)

// WithLogger sets the logger used for launch diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithActivator overrides the activation backend selected by Config.Activation.
func WithActivator(a Activator) Option {
	return func(o *options) { o.activator = a }
}

// Success reports whether the downstream ran and exited zero.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}

// NewConfig copies the launch-relevant settings out of a loaded configuration.
func NewConfig(cfg *config.Config) Config {
	return Config{
		ActivationScript:      cfg.ActivationScript,
		Activation:            cfg.Activation,
		WorkDir:               cfg.WorkDir,
		Module:                cfg.Module,
		Interpreter:           cfg.Interpreter,
		ForwardCallerDir:      cfg.ForwardCallerDir,
		Handoff:               cfg.Handoff,
		VerifyInterpreter:     cfg.VerifyInterpreter,
		MinInterpreterVersion: cfg.MinInterpreterVersion,
	}
}

// Launch activates the virtual environment when needed and delegates to the
// downstream module. The launcher's own working directory is left alone in
// wait mode; the child is started in the resolved work dir.
func Launch(ctx context.Context, cfg Config, opts ...Option) *Result {
	o := options{logger: log.NewWithOptions(io.Discard, log.Options{})}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	plan, err := NewPlan(cfg)
	if err != nil {
		return errorResult(err)
	}
	logger.Debug("launch plan",
		"anchor", plan.Anchor,
		"state", plan.State,
		"workDir", plan.WorkDir,
		"command", plan.String(),
	)

	session := NewSession(cfg.EnvActive, cfg.Environ)
	if session.State() == NotActivated {
		if err := activate(ctx, session, plan, cfg, o); err != nil {
			return errorResult(err)
		}
	} else {
		logger.Debug("virtual environment already active, skipping activation")
	}

	if err := checkDir(plan.WorkDir); err != nil {
		return errorResult(workDirError(plan.WorkDir, err))
	}
	session.Set("PWD", plan.WorkDir)
	env := session.Environ()

	path, err := interpreter.Lookup(plan.WorkDir, plan.Interpreter, env)
	if err != nil {
		return errorResult(interpreterNotFoundError(plan.Interpreter, err))
	}
	logger.Debug("resolved interpreter", "path", path)

	if cfg.VerifyInterpreter {
		v, err := interpreter.Version(ctx, path, env)
		if err == nil {
			err = interpreter.Check(v, cfg.MinInterpreterVersion)
		}
		if err != nil {
			return errorResult(interpreterVersionError(path, err))
		}
		logger.Debug("interpreter version accepted", "version", v, "constraint", cfg.MinInterpreterVersion)
	}

	if plan.Handoff == config.HandoffExec {
		if execSupported {
			if err := os.Chdir(plan.WorkDir); err != nil {
				return errorResult(workDirError(plan.WorkDir, err))
			}
			logger.Debug("replacing launcher process", "path", path)
			err := execReplace(path, plan.Args, env)
			return errorResult(handoffError(path, err))
		}
		logger.Warn("exec handoff is not supported on this platform, waiting for child instead")
	}

	result := runWait(ctx, path, plan.Args, plan.WorkDir, env, handoffIO{
		Stdin:  cfg.Stdin,
		Stdout: cfg.Stdout,
		Stderr: cfg.Stderr,
	})
	logger.Debug("downstream exited", "code", result.ExitCode)
	return result
}

func activate(ctx context.Context, session *Session, plan *Plan, cfg Config, o options) error {
	if err := checkFile(plan.ActivationScript); err != nil {
		return activationMissingError(plan.ActivationScript, err)
	}

	activator := o.activator
	if activator == nil {
		var err error
		if activator, err = NewActivator(plan.Activation); err != nil {
			return activationFailedError(plan.ActivationScript, err)
		}
	}

	o.logger.Debug("activating virtual environment", "script", plan.ActivationScript, "backend", activator.Name())
	_, err := session.Activate(ctx, activator, ActivationRequest{
		Script: plan.ActivationScript,
		Dir:    plan.Anchor,
		Stdout: cfg.Stderr,
		Stderr: cfg.Stderr,
	})
	if err != nil {
		return activationFailedError(plan.ActivationScript, err)
	}
	return nil
}

func errorResult(err error) *Result {
	code := types.ExitFailure
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		code = ae.Code()
	}
	return &Result{ExitCode: code, Error: err}
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
