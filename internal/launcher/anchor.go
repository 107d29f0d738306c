// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/issue"
)

// executablePath is swapped in tests.
var executablePath = os.Executable

// ResolveAnchor returns the absolute anchor directory.
//
// A non-empty override wins and is resolved against callerDir when relative.
// Otherwise AnchorExecutable uses the directory of the running binary with
// symlinks resolved, and AnchorCwd uses callerDir itself.
func ResolveAnchor(mode config.AnchorMode, override, callerDir string) (string, error) {
	var (
		anchor string
		err    error
	)
	switch {
	case override != "":
		anchor = override
		if !filepath.IsAbs(anchor) {
			anchor = filepath.Join(callerDir, anchor)
		}
	case mode == config.AnchorCwd:
		anchor = callerDir
	case mode == config.AnchorExecutable || mode == "":
		anchor, err = executableDir()
	default:
		err = mode.Validate()
	}
	if err != nil {
		return "", anchorError(string(mode), err)
	}
	if !filepath.IsAbs(anchor) {
		return "", anchorError(anchor, fmt.Errorf("anchor %q is not absolute", anchor))
	}

	info, err := os.Stat(anchor)
	if err != nil {
		return "", anchorError(anchor, err)
	}
	if !info.IsDir() {
		return "", anchorError(anchor, fmt.Errorf("%s is not a directory", anchor))
	}
	return filepath.Clean(anchor), nil
}

func executableDir() (string, error) {
	exe, err := executablePath()
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(resolved), nil
}

func anchorError(resource string, err error) error {
	return issue.NewErrorContext().
		WithOperation("resolve anchor directory").
		WithResource(resource).
		WithSuggestions(
			"Set 'anchor_dir' in config.cue or pass --anchor cwd",
		).
		WithIssue(issue.AnchorUnresolvedId).
		Wrap(fmt.Errorf("%w: %w", ErrAnchorUnresolved, err)).
		BuildError()
}
