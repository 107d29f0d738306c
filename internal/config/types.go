// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/clai-dev/clai/internal/interpreter"
	"github.com/clai-dev/clai/pkg/types"
)

const (
	// AnchorExecutable resolves sibling resources from the launcher binary's
	// own directory, following symlinks.
	AnchorExecutable AnchorMode = "executable"
	// AnchorCwd resolves sibling resources from the caller's working directory.
	AnchorCwd AnchorMode = "cwd"

	// ActivationVirtual interprets the activation script in-process (mvdan/sh).
	ActivationVirtual ActivationMode = "virtual"
	// ActivationNative sources the activation script with the host shell.
	ActivationNative ActivationMode = "native"

	// HandoffWait runs the downstream module as a child and waits for it.
	HandoffWait HandoffMode = "wait"
	// HandoffExec replaces the launcher process with the downstream module.
	HandoffExec HandoffMode = "exec"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidAnchorMode is returned when an AnchorMode value is not recognized.
	ErrInvalidAnchorMode = errors.New("invalid anchor mode")
	// ErrInvalidActivationMode is returned when an ActivationMode value is not recognized.
	ErrInvalidActivationMode = errors.New("invalid activation mode")
	// ErrInvalidHandoffMode is returned when a HandoffMode value is not recognized.
	ErrInvalidHandoffMode = errors.New("invalid handoff mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidEnvFlag is returned when the env flag is not a valid variable name.
	ErrInvalidEnvFlag = errors.New("invalid env flag")
	// ErrInvalidModulePath is returned when the module is not a dotted identifier path.
	ErrInvalidModulePath = errors.New("invalid module path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	envFlagPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	modulePathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

type (
	// AnchorMode selects how the anchor directory is resolved.
	AnchorMode string

	// ActivationMode selects the activation backend.
	ActivationMode string

	// HandoffMode selects how control passes to the downstream module.
	HandoffMode string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidValueError reports an unrecognized enum-like value.
	// It wraps the per-type sentinel for errors.Is() compatibility.
	InvalidValueError struct {
		Field    string
		Value    string
		Allowed  []string
		sentinel error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the launcher configuration.
	Config struct {
		// Anchor selects how the anchor directory is resolved.
		Anchor AnchorMode `json:"anchor" mapstructure:"anchor" toml:"anchor"`
		// AnchorDir, when set, is used as the anchor directly.
		AnchorDir types.FilesystemPath `json:"anchor_dir,omitempty" mapstructure:"anchor_dir" toml:"anchor_dir,omitempty"`
		// EnvFlag names the variable that signals an active virtualenv.
		EnvFlag string `json:"env_flag" mapstructure:"env_flag" toml:"env_flag"`
		// ActivationScript is the activation resource, relative to the anchor.
		ActivationScript types.FilesystemPath `json:"activation_script" mapstructure:"activation_script" toml:"activation_script"`
		// Activation selects the activation backend.
		Activation ActivationMode `json:"activation" mapstructure:"activation" toml:"activation"`
		// WorkDir is the downstream working directory, relative to the anchor.
		WorkDir types.FilesystemPath `json:"work_dir" mapstructure:"work_dir" toml:"work_dir"`
		// Module is the dotted module path run with '-m'.
		Module string `json:"module" mapstructure:"module" toml:"module"`
		// Interpreter is the interpreter name or absolute path.
		Interpreter string `json:"interpreter" mapstructure:"interpreter" toml:"interpreter"`
		// ForwardCallerDir passes the caller's original directory as the first argument.
		ForwardCallerDir bool `json:"forward_caller_dir" mapstructure:"forward_caller_dir" toml:"forward_caller_dir"`
		// Handoff selects wait or exec.
		Handoff HandoffMode `json:"handoff" mapstructure:"handoff" toml:"handoff"`
		// VerifyInterpreter checks MinInterpreterVersion before handoff.
		VerifyInterpreter bool `json:"verify_interpreter" mapstructure:"verify_interpreter" toml:"verify_interpreter"`
		// MinInterpreterVersion is a semver constraint such as ">= 3.10".
		MinInterpreterVersion string `json:"min_interpreter_version" mapstructure:"min_interpreter_version" toml:"min_interpreter_version"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui" toml:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose" toml:"verbose"`
	}
)

func newInvalidValueError(field, value string, sentinel error, allowed ...string) *InvalidValueError {
	return &InvalidValueError{Field: field, Value: value, Allowed: allowed, sentinel: sentinel}
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s: invalid value %q", e.Field, e.Value)
	}
	return fmt.Sprintf("%s: invalid value %q (valid: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Unwrap returns the per-type sentinel for errors.Is() compatibility.
func (e *InvalidValueError) Unwrap() error { return e.sentinel }

// Validate returns an error if the AnchorMode is not recognized.
func (m AnchorMode) Validate() error {
	switch m {
	case AnchorExecutable, AnchorCwd:
		return nil
	default:
		return newInvalidValueError("anchor", string(m), ErrInvalidAnchorMode, string(AnchorExecutable), string(AnchorCwd))
	}
}

// Validate returns an error if the ActivationMode is not recognized.
func (m ActivationMode) Validate() error {
	switch m {
	case ActivationVirtual, ActivationNative:
		return nil
	default:
		return newInvalidValueError("activation", string(m), ErrInvalidActivationMode, string(ActivationVirtual), string(ActivationNative))
	}
}

// Validate returns an error if the HandoffMode is not recognized.
func (m HandoffMode) Validate() error {
	switch m {
	case HandoffWait, HandoffExec:
		return nil
	default:
		return newInvalidValueError("handoff", string(m), ErrInvalidHandoffMode, string(HandoffWait), string(HandoffExec))
	}
}

// Validate returns an error if the ColorScheme is not recognized.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return newInvalidValueError("ui.color_scheme", string(c), ErrInvalidColorScheme,
			string(ColorSchemeAuto), string(ColorSchemeDark), string(ColorSchemeLight))
	}
}

// Validate checks every field and returns an *InvalidConfigError listing all
// problems, or nil.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Anchor.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.AnchorDir != "" {
		if err := c.AnchorDir.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("anchor_dir: %w", err))
		}
	}
	if !envFlagPattern.MatchString(c.EnvFlag) {
		errs = append(errs, newInvalidValueError("env_flag", c.EnvFlag, ErrInvalidEnvFlag))
	}
	if err := c.ActivationScript.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("activation_script: %w", err))
	}
	if err := c.Activation.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.WorkDir.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("work_dir: %w", err))
	}
	if !modulePathPattern.MatchString(c.Module) {
		errs = append(errs, newInvalidValueError("module", c.Module, ErrInvalidModulePath))
	}
	if strings.TrimSpace(c.Interpreter) == "" {
		errs = append(errs, fmt.Errorf("interpreter: %w", &types.InvalidFilesystemPathError{Value: types.FilesystemPath(c.Interpreter)}))
	}
	if err := c.Handoff.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := interpreter.ValidateConstraint(c.MinInterpreterVersion); err != nil {
		errs = append(errs, fmt.Errorf("min_interpreter_version: %w", err))
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes ErrInvalidConfig and every field error to errors.Is/As.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
