// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewVenvTree_Layout(t *testing.T) {
	t.Parallel()

	tree := NewVenvTree(t)

	if got := filepath.Dir(tree.Anchor); got != tree.Root {
		t.Errorf("anchor parent = %q, want %q", got, tree.Root)
	}
	for _, p := range []string{
		tree.ActivationScript,
		tree.Interpreter,
		filepath.Join(tree.Root, "CLAI", "start_shell.py"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}

	info, err := os.Stat(tree.Interpreter)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Errorf("fake interpreter is not executable: %v", info.Mode())
	}
}

func TestNewVenvTree_Options(t *testing.T) {
	t.Parallel()

	tree := NewVenvTree(t, WithoutActivationScript(), WithPythonVersion("3.9.1"))
	if _, err := os.Stat(tree.ActivationScript); !os.IsNotExist(err) {
		t.Errorf("activation script should be absent, stat err = %v", err)
	}
	data, err := os.ReadFile(tree.Interpreter)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Python 3.9.1") {
		t.Errorf("fake interpreter does not report the requested version:\n%s", data)
	}

	failing := NewVenvTree(t, WithActivationFailure(4))
	data, err = os.ReadFile(failing.ActivationScript)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "return 4") {
		t.Errorf("activation script missing failure status:\n%s", data)
	}
}

func TestVenvTree_ReadBack(t *testing.T) {
	t.Parallel()

	tree := NewVenvTree(t)
	if n := tree.Activations(t); n != 0 {
		t.Errorf("Activations() on fresh tree = %d, want 0", n)
	}
	if runs := tree.Invocations(t); runs != nil {
		t.Errorf("Invocations() on fresh tree = %v, want nil", runs)
	}

	record := "cwd=/a\narg=/caller dir\nvirtual_env=/v\ncwd=/b\nvirtual_env=\n"
	MustWriteFile(t, tree.RecordFile, record, 0o644)
	MustWriteFile(t, tree.ActivationLog, "activated\nactivated\n", 0o644)

	runs := tree.Invocations(t)
	if len(runs) != 2 {
		t.Fatalf("Invocations() returned %d runs, want 2", len(runs))
	}
	if runs[0].Cwd != "/a" || len(runs[0].Args) != 1 || runs[0].Args[0] != "/caller dir" || runs[0].VirtualEnv != "/v" {
		t.Errorf("first run = %+v", runs[0])
	}
	if runs[1].Cwd != "/b" || len(runs[1].Args) != 0 || runs[1].VirtualEnv != "" {
		t.Errorf("second run = %+v", runs[1])
	}
	if n := tree.Activations(t); n != 2 {
		t.Errorf("Activations() = %d, want 2", n)
	}
}
