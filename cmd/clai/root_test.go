// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clai-dev/clai/internal/config"
	"github.com/clai-dev/clai/internal/launcher"
	"github.com/clai-dev/clai/internal/testutil"
	"github.com/clai-dev/clai/pkg/types"
)

// harness runs the command tree against a fake virtualenv tree.
type harness struct {
	tree       *testutil.VenvTree
	caller     string
	environ    []string
	configPath string
	stdout     bytes.Buffer
	stderr     bytes.Buffer
	// launch replaces launcher.Launch when set.
	launch LaunchFunc
	// getwdErr makes the injected getwd fail.
	getwdErr error
}

func newHarness(t *testing.T, opts ...testutil.VenvOption) *harness {
	t.Helper()

	cfgDir := t.TempDir()
	config.SetConfigDirOverride(cfgDir)
	t.Cleanup(config.Reset)

	tree := testutil.NewVenvTree(t, opts...)
	caller := filepath.Join(tree.Root, "home", "u", "proj")
	testutil.MustMkdirAll(t, caller, 0o755)

	h := &harness{
		tree:       tree,
		caller:     caller,
		environ:    tree.Environ(),
		configPath: filepath.Join(cfgDir, "config.cue"),
	}
	h.writeConfig(t, "")
	return h
}

// writeConfig writes a config pinned to the tree's anchor plus extra CUE lines.
func (h *harness) writeConfig(t *testing.T, extra string) {
	t.Helper()
	content := fmt.Sprintf("anchor_dir: %q\ninterpreter: \"python3\"\n%s", h.tree.Anchor, extra)
	testutil.MustWriteFile(t, h.configPath, content, 0o644)
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	root := NewRootCommand(h.app())
	root.SetArgs(append([]string{"--config=" + h.configPath}, args...))
	root.SetOut(&h.stdout)
	root.SetErr(&h.stderr)
	return root.ExecuteContext(context.Background())
}

// execute runs args through fang the way main does and returns the exit status.
func (h *harness) execute(t *testing.T, args ...string) types.ExitCode {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	return execute(context.Background(), h.app(), append([]string{"--config=" + h.configPath}, args...))
}

func (h *harness) app() *App {
	return NewApp(Dependencies{
		Launch: h.launch,
		Getwd: func() (string, error) {
			if h.getwdErr != nil {
				return "", h.getwdErr
			}
			return h.caller, nil
		},
		Environ: func() []string { return h.environ },
		Stdin:   strings.NewReader(""),
		Stdout:  &h.stdout,
		Stderr:  &h.stderr,
	})
}

// capture records the launch config instead of launching.
func (h *harness) capture(got *launcher.Config) {
	h.launch = func(_ context.Context, cfg launcher.Config, _ ...launcher.Option) *launcher.Result {
		*got = cfg
		return &launcher.Result{}
	}
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-03-01T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-03-01T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		// Test binaries report Main.Version == "(devel)".
		Version = "dev"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(NewApp(Dependencies{}))

	for _, name := range []string{"doctor", "config"} {
		found, _, err := root.Find([]string{name})
		if err != nil || found.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, found, err)
		}
	}
	for _, flag := range []string{"dry-run", "no-forward-cwd", "anchor", "handoff", "activation"} {
		if root.Flags().Lookup(flag) == nil {
			t.Errorf("root command missing --%s", flag)
		}
	}
	for _, flag := range []string{"verbose", "config"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("root command missing persistent --%s", flag)
		}
	}
}

func TestExecute_DownstreamFailureAddsNothing(t *testing.T) {
	h := newHarness(t)
	h.environ = append(h.environ, "CLAI_FAKE_EXIT=3")

	if code := h.execute(t); code != 3 {
		t.Errorf("exit status = %d, want the downstream's 3", code)
	}
	if h.stderr.Len() != 0 {
		t.Errorf("a downstream failure should print nothing extra, stderr:\n%s", h.stderr.String())
	}
	if runs := h.tree.Invocations(t); len(runs) != 1 {
		t.Errorf("downstream ran %d times, want 1", len(runs))
	}
}

func TestExecute_LauncherFailureReportedOnce(t *testing.T) {
	h := newHarness(t, testutil.WithoutActivationScript())

	if code := h.execute(t); code != types.ExitFailure {
		t.Errorf("exit status = %d, want %d", code, types.ExitFailure)
	}
	if n := strings.Count(h.stderr.String(), "failed to activate virtual environment"); n != 1 {
		t.Errorf("activation failure printed %d times, want once:\n%s", n, h.stderr.String())
	}
}

func TestExecute_UnreportedErrorsStillPrinted(t *testing.T) {
	h := newHarness(t)

	if code := h.execute(t, "--handoff", "fork"); code != types.ExitFailure {
		t.Errorf("exit status = %d, want %d", code, types.ExitFailure)
	}
	if !strings.Contains(h.stderr.String(), "fork") {
		t.Errorf("invalid flag value should be printed, stderr:\n%s", h.stderr.String())
	}
}

func TestExecute_Success(t *testing.T) {
	h := newHarness(t)

	if code := h.execute(t); code != 0 {
		t.Errorf("exit status = %d, want 0\nstderr:\n%s", code, h.stderr.String())
	}
}

func TestExecute_GetwdFailure(t *testing.T) {
	for _, sub := range []string{"", "doctor"} {
		t.Run("command="+sub, func(t *testing.T) {
			h := newHarness(t)
			h.getwdErr = errors.New("stale file handle")

			var args []string
			if sub != "" {
				args = append(args, sub)
			}
			if code := h.execute(t, args...); code != types.ExitFailure {
				t.Errorf("exit status = %d, want %d", code, types.ExitFailure)
			}
			out := h.stderr.String()
			if n := strings.Count(out, "failed to determine working directory: stale file handle"); n != 1 {
				t.Errorf("getwd failure printed %d times, want once:\n%s", n, out)
			}
			if runs := h.tree.Invocations(t); len(runs) != 0 {
				t.Error("downstream ran without a caller directory")
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want types.ExitCode
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), types.ExitFailure},
		{"exit error", &ExitError{Code: 42}, 42},
		{"wrapped exit error", fmt.Errorf("run: %w", &ExitError{Code: 5}), 5},
		{"out of range folds", &ExitError{Code: 300}, 44},
		{"negative", &ExitError{Code: -1}, types.ExitFailure},
		{"zero with error", &ExitError{Code: 0, Err: errors.New("boom")}, types.ExitFailure},
		{"wraps to zero", &ExitError{Code: 256}, types.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
