// SPDX-License-Identifier: MPL-2.0

//go:build unix

package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/issue"
	"github.com/clai-dev/clai/internal/testutil"
	"github.com/clai-dev/clai/pkg/types"
)

// execFailedStatus is what the helper exits with when Launch returns from an
// exec handoff instead of being replaced.
const execFailedStatus = 99

// TestHelperProcess runs an exec handoff inside a child test binary, so the
// process that gets replaced is not the test runner.
// This function should not be called directly - it is invoked by
// TestLaunch_ExecHandoff.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("CLAI_WANT_HELPER_PROCESS") != "1" {
		return
	}

	cfg := Config{
		AnchorDir:        os.Getenv("CLAI_HELPER_ANCHOR"),
		CallerDir:        os.Getenv("CLAI_HELPER_CALLER"),
		Environ:          os.Environ(),
		ActivationScript: "venv/bin/activate",
		Activation:       config.ActivationVirtual,
		WorkDir:          "..",
		Module:           config.DefaultModule,
		Interpreter:      "python3",
		ForwardCallerDir: true,
		Handoff:          config.HandoffExec,
	}
	result := Launch(context.Background(), cfg)
	fmt.Fprintf(os.Stderr, "exec handoff returned: code=%d err=%v\n", result.ExitCode, result.Error)
	os.Exit(execFailedStatus)
}

func TestLaunch_ExecHandoff(t *testing.T) {
	t.Parallel()

	tree := testutil.NewVenvTree(t)
	caller := callerDir(t, tree, "home/u/proj")

	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$")
	cmd.Dir = caller
	cmd.Env = append(tree.Environ(),
		"CLAI_WANT_HELPER_PROCESS=1",
		"CLAI_HELPER_ANCHOR="+tree.Anchor,
		"CLAI_HELPER_CALLER="+caller,
		"CLAI_FAKE_EXIT=5",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("helper process error = %v, want an exit status\nstderr:\n%s", err, stderr.String())
	}
	if code := exitErr.ExitCode(); code != 5 {
		t.Fatalf("exit status = %d, want the downstream's 5\nstderr:\n%s", code, stderr.String())
	}

	if n := tree.Activations(t); n != 1 {
		t.Errorf("activation ran %d times, want 1", n)
	}
	run := singleInvocation(t, tree)
	if run.Cwd != tree.Root {
		t.Errorf("downstream cwd = %q, want parent of anchor %q", run.Cwd, tree.Root)
	}
	want := []string{"-m", config.DefaultModule, caller}
	if strings.Join(run.Args, "\x00") != strings.Join(want, "\x00") {
		t.Errorf("downstream args = %q, want %q", run.Args, want)
	}
	if run.VirtualEnv != tree.VenvDir {
		t.Errorf("downstream VIRTUAL_ENV = %q, want %q", run.VirtualEnv, tree.VenvDir)
	}
}

func TestRunWait_StartFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	notExecutable := filepath.Join(dir, "python3")
	testutil.MustWriteFile(t, notExecutable, "#!/bin/sh\nexit 0\n", 0o644)

	tests := []struct {
		name       string
		path       string
		wantCode   types.ExitCode
		suggestion string
	}{
		{"missing", filepath.Join(dir, "gone", "python3"), types.ExitCommandNotFound, "recreate the virtual environment"},
		{"not executable", notExecutable, types.ExitNotExecutable, "chmod +x " + notExecutable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := runWait(context.Background(), tt.path, nil, dir, nil, handoffIO{})
			if !errors.Is(result.Error, ErrHandoffFailed) {
				t.Fatalf("runWait() error = %v, want ErrHandoffFailed", result.Error)
			}
			if result.ExitCode != tt.wantCode {
				t.Errorf("exit code = %d, want %d", result.ExitCode, tt.wantCode)
			}

			var ae *issue.ActionableError
			if !errors.As(result.Error, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T", result.Error)
			}
			if ae.Issue != issue.DownstreamFailedId {
				t.Errorf("issue id = %d, want DownstreamFailedId", ae.Issue)
			}
			if !strings.Contains(ae.Format(false), tt.suggestion) {
				t.Errorf("Format() missing suggestion %q:\n%s", tt.suggestion, ae.Format(false))
			}
		})
	}
}

func TestHandoffExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want types.ExitCode
	}{
		{"not exist", &os.PathError{Op: "fork/exec", Path: "/x", Err: os.ErrNotExist}, types.ExitCommandNotFound},
		{"permission", &os.PathError{Op: "fork/exec", Path: "/x", Err: os.ErrPermission}, types.ExitNotExecutable},
		{"other", errors.New("boom"), types.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := handoffExitCode(tt.err); got != tt.want {
				t.Errorf("handoffExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
