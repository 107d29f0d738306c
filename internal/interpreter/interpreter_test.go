// SPDX-License-Identifier: MPL-2.0

package interpreter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/clai-dev/clai/internal/testutil"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{"release", "Python 3.12.4\n", "3.12.4", false},
		{"release candidate", "Python 3.13.0rc1", "3.13.0", false},
		{"local build", "Python 3.11.9+", "3.11.9", false},
		{"two components", "Python 3.10", "3.10.0", false},
		{"python 2 banner", "Python 2.7.18", "2.7.18", false},
		{"garbage", "command not found", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := ParseVersion(tt.output)
			if tt.wantErr {
				if !errors.Is(err, ErrUnparsableVersion) {
					t.Fatalf("ParseVersion(%q) error = %v, want ErrUnparsableVersion", tt.output, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.output, err)
			}
			if v.String() != tt.want {
				t.Errorf("ParseVersion(%q) = %s, want %s", tt.output, v, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version    string
		constraint string
		wantErr    error
	}{
		{"3.12.4", ">= 3.10", nil},
		{"3.10.0", ">= 3.10", nil},
		{"3.9.18", ">= 3.10", ErrVersionMismatch},
		{"2.7.18", ">= 3.10", ErrVersionMismatch},
		{"3.9.18", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.version+" "+tt.constraint, func(t *testing.T) {
			t.Parallel()
			err := Check(semver.MustParse(tt.version), tt.constraint)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check(%s, %q) = %v, want %v", tt.version, tt.constraint, err, tt.wantErr)
			}
			if tt.wantErr != nil {
				var vme *VersionMismatchError
				if !errors.As(err, &vme) || vme.Constraint != tt.constraint {
					t.Errorf("error should be *VersionMismatchError for %q, got %#v", tt.constraint, err)
				}
			}
		})
	}

	if err := Check(semver.MustParse("3.12.0"), "not a constraint"); err == nil {
		t.Error("Check with an invalid constraint should fail")
	}
}

func TestLookup_UsesGivenPath(t *testing.T) {
	t.Parallel()

	tree := testutil.NewVenvTree(t)

	got, err := Lookup(tree.Root, "python3", tree.ActivatedEnviron())
	if err != nil {
		t.Fatalf("Lookup() in activated env: %v", err)
	}
	if got != tree.Interpreter {
		t.Errorf("Lookup() = %q, want %q", got, tree.Interpreter)
	}

	// The venv bin dir is not on this PATH, and an empty PATH has nowhere to look.
	if _, err := Lookup(tree.Root, "python3", []string{"PATH="}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup() with empty PATH error = %v, want ErrNotFound", err)
	}
}

func TestLookup_PathNames(t *testing.T) {
	t.Parallel()

	tree := testutil.NewVenvTree(t)

	got, err := Lookup(tree.Root, tree.Interpreter, nil)
	if err != nil {
		t.Fatalf("Lookup(absolute) error: %v", err)
	}
	if got != tree.Interpreter {
		t.Errorf("Lookup(absolute) = %q, want %q", got, tree.Interpreter)
	}

	rel := filepath.Join("launcher", "venv", "bin", "python3")
	got, err = Lookup(tree.Root, rel, nil)
	if err != nil {
		t.Fatalf("Lookup(relative) error: %v", err)
	}
	if filepath.Clean(got) != tree.Interpreter {
		t.Errorf("Lookup(relative) = %q, want %q", got, tree.Interpreter)
	}

	if _, err := Lookup(tree.Root, "", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(empty) error = %v, want ErrNotFound", err)
	}
}

func TestVersion_RunsInterpreter(t *testing.T) {
	t.Parallel()

	tree := testutil.NewVenvTree(t, testutil.WithPythonVersion("3.11.2"))

	v, err := Version(context.Background(), tree.Interpreter, tree.ActivatedEnviron())
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v.String() != "3.11.2" {
		t.Errorf("Version() = %s, want 3.11.2", v)
	}
}
