// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clai-dev/clai/pkg/platform"
)

// DefaultFakePythonVersion is the version reported by the fake interpreter.
const DefaultFakePythonVersion = "3.12.4"

type (
	// VenvTree is a throwaway launcher layout on disk:
	//
	//	<Root>/CLAI/start_shell.py
	//	<Root>/launcher/                      (Anchor)
	//	<Root>/launcher/venv/bin/activate     (ActivationScript)
	//	<Root>/launcher/venv/bin/python3      (fake interpreter)
	//
	// The fake interpreter appends what it observed (cwd, argv, VIRTUAL_ENV)
	// to RecordFile and exits with $CLAI_FAKE_EXIT. The activation script
	// appends one line to ActivationLog each time it is sourced.
	VenvTree struct {
		Root             string
		Anchor           string
		VenvDir          string
		ActivationScript string
		Interpreter      string
		RecordFile       string
		ActivationLog    string
	}

	// Invocation is one run of the fake interpreter as read back from RecordFile.
	Invocation struct {
		Cwd        string
		Args       []string
		VirtualEnv string
	}

	// VenvOption customizes NewVenvTree.
	VenvOption func(*venvOptions)

	venvOptions struct {
		pythonVersion     string
		withoutActivation bool
		activationStatus  int
	}
)

// WithPythonVersion sets the version printed by 'python3 --version'.
func WithPythonVersion(v string) VenvOption {
	return func(o *venvOptions) { o.pythonVersion = v }
}

// WithoutActivationScript omits venv/bin/activate from the tree.
func WithoutActivationScript() VenvOption {
	return func(o *venvOptions) { o.withoutActivation = true }
}

// WithActivationFailure makes the activation script return status code
// after logging its run, before exporting anything.
func WithActivationFailure(code int) VenvOption {
	return func(o *venvOptions) { o.activationStatus = code }
}

// NewVenvTree builds a VenvTree under t.TempDir(). Paths are symlink-resolved
// so they compare equal to what the fake interpreter reports via 'pwd -P'.
// The test is skipped on Windows, where the fixtures' shell scripts cannot run.
func NewVenvTree(t testing.TB, opts ...VenvOption) *VenvTree {
	t.Helper()
	if platform.IsWindows() {
		t.Skip("fake virtualenv fixtures require a POSIX shell")
	}

	o := venvOptions{pythonVersion: DefaultFakePythonVersion}
	for _, opt := range opts {
		opt(&o)
	}

	root := MustEvalSymlinks(t, t.TempDir())
	tree := &VenvTree{
		Root:          root,
		Anchor:        filepath.Join(root, "launcher"),
		VenvDir:       filepath.Join(root, "launcher", "venv"),
		RecordFile:    filepath.Join(root, "invocations.log"),
		ActivationLog: filepath.Join(root, "activations.log"),
	}
	tree.ActivationScript = filepath.Join(tree.VenvDir, "bin", "activate")
	tree.Interpreter = filepath.Join(tree.VenvDir, "bin", "python3")

	MustWriteFile(t, filepath.Join(root, "CLAI", "__init__.py"), "", 0o644)
	MustWriteFile(t, filepath.Join(root, "CLAI", "start_shell.py"), "import sys\n", 0o644)
	MustWriteFile(t, tree.Interpreter, fakePython(o.pythonVersion, tree.RecordFile), 0o755)
	if !o.withoutActivation {
		MustWriteFile(t, tree.ActivationScript, fakeActivate(tree.VenvDir, tree.ActivationLog, o.activationStatus), 0o644)
	}
	return tree
}

// Environ returns a minimal base environment for launching against the tree.
// VIRTUAL_ENV is left unset; PATH only holds system directories.
func (v *VenvTree) Environ() []string {
	return []string{
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"HOME=" + v.Root,
	}
}

// ActivatedEnviron returns an environment as a shell that already sourced
// the activation script would have it.
func (v *VenvTree) ActivatedEnviron() []string {
	return []string{
		"PATH=" + filepath.Join(v.VenvDir, "bin") + ":/usr/local/bin:/usr/bin:/bin",
		"HOME=" + v.Root,
		"VIRTUAL_ENV=" + v.VenvDir,
	}
}

// Activations returns how many times the activation script ran.
func (v *VenvTree) Activations(t testing.TB) int {
	t.Helper()
	data, err := os.ReadFile(v.ActivationLog)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("failed to read %s: %v", v.ActivationLog, err)
	}
	return strings.Count(string(data), "activated\n")
}

// Invocations parses RecordFile. Each run starts with a "cwd=" line.
func (v *VenvTree) Invocations(t testing.TB) []Invocation {
	t.Helper()
	data, err := os.ReadFile(v.RecordFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read %s: %v", v.RecordFile, err)
	}

	var runs []Invocation
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSuffix(line, "\n")
		key, value, _ := strings.Cut(line, "=")
		switch key {
		case "cwd":
			runs = append(runs, Invocation{Cwd: value})
		case "arg":
			if len(runs) > 0 {
				runs[len(runs)-1].Args = append(runs[len(runs)-1].Args, value)
			}
		case "virtual_env":
			if len(runs) > 0 {
				runs[len(runs)-1].VirtualEnv = value
			}
		}
	}
	return runs
}

func fakeActivate(venvDir, logFile string, status int) string {
	var b strings.Builder
	b.WriteString("# fake virtualenv activation script\n")
	fmt.Fprintf(&b, "echo activated >> %s\n", shellQuote(logFile))
	if status != 0 {
		fmt.Fprintf(&b, "return %d\n", status)
	}
	fmt.Fprintf(&b, "VIRTUAL_ENV=%s\n", shellQuote(venvDir))
	b.WriteString("export VIRTUAL_ENV\n")
	b.WriteString("_OLD_VIRTUAL_PATH=\"$PATH\"\n")
	b.WriteString("PATH=\"$VIRTUAL_ENV/bin:$PATH\"\n")
	b.WriteString("export PATH\n")
	b.WriteString("unset PYTHONHOME\n")
	b.WriteString("hash -r 2>/dev/null\n")
	return b.String()
}

func fakePython(version, recordFile string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("if [ \"$1\" = \"--version\" ]; then\n")
	fmt.Fprintf(&b, "  echo \"Python %s\"\n", version)
	b.WriteString("  exit 0\n")
	b.WriteString("fi\n")
	fmt.Fprintf(&b, "rec=%s\n", shellQuote(recordFile))
	b.WriteString("echo \"cwd=$(pwd -P)\" >> \"$rec\"\n")
	b.WriteString("for a in \"$@\"; do echo \"arg=$a\" >> \"$rec\"; done\n")
	b.WriteString("echo \"virtual_env=${VIRTUAL_ENV:-}\" >> \"$rec\"\n")
	b.WriteString("exit \"${CLAI_FAKE_EXIT:-0}\"\n")
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
