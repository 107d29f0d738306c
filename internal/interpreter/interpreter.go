// SPDX-License-Identifier: MPL-2.0

package interpreter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
)

var (
	// ErrNotFound is returned when the interpreter cannot be located.
	ErrNotFound = errors.New("interpreter not found")

	// ErrUnparsableVersion is returned when '--version' output has no version number.
	ErrUnparsableVersion = errors.New("unparsable interpreter version")

	// ErrVersionMismatch is returned when a version does not satisfy a constraint.
	ErrVersionMismatch = errors.New("interpreter version does not satisfy constraint")

	// "Python 3.12.4", "Python 3.13.0rc1", "Python 3.11.9+"
	versionPattern = regexp.MustCompile(`Python\s+(\d+)\.(\d+)(?:\.(\d+))?`)
)

// VersionMismatchError reports a version outside the required constraint.
type VersionMismatchError struct {
	Version    *semver.Version
	Constraint string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("interpreter version %s does not satisfy %q", e.Version, e.Constraint)
}

func (e *VersionMismatchError) Unwrap() error { return ErrVersionMismatch }

// Lookup resolves name to an executable path using the PATH found in env.
// Relative names containing a separator are resolved against dir.
func Lookup(dir, name string, env []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty interpreter name", ErrNotFound)
	}
	path, err := interp.LookPathDir(dir, expand.ListEnviron(env...), name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
	}
	return path, nil
}

// Version runs '<path> --version' and parses the reported version.
// Python 2 prints its version on stderr, so both streams are read.
func Version(ctx context.Context, path string, env []string) (*semver.Version, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Env = env
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to run %s --version: %w", path, err)
	}
	return ParseVersion(out.String())
}

// ParseVersion extracts the version number from '--version' output.
// Pre-release and local suffixes are dropped.
func ParseVersion(output string) (*semver.Version, error) {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnparsableVersion, strings.TrimSpace(output))
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v, err := semver.NewVersion(m[1] + "." + m[2] + "." + patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsableVersion, err)
	}
	return v, nil
}

// Check reports whether v satisfies constraint (e.g. ">= 3.10").
// An empty constraint always passes.
func Check(v *semver.Version, constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	if !c.Check(v) {
		return &VersionMismatchError{Version: v, Constraint: constraint}
	}
	return nil
}

// ValidateConstraint reports whether constraint parses. Empty is valid.
func ValidateConstraint(constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}
	if _, err := semver.NewConstraint(constraint); err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	return nil
}
