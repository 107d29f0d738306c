// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"errors"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/clai-dev/clai/internal/config"
)

func TestNewPlan(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX absolute paths")
	}

	anchor := filepath.Join(string(filepath.Separator), "opt", "clai", "launcher")
	base := Config{
		AnchorDir:        anchor,
		CallerDir:        "/home/u/proj",
		ActivationScript: "venv/bin/activate",
		WorkDir:          "..",
		Module:           "CLAI.start_shell",
		Interpreter:      "python3",
		ForwardCallerDir: true,
	}

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		p, err := NewPlan(base)
		if err != nil {
			t.Fatalf("NewPlan() error: %v", err)
		}
		if p.State != NotActivated {
			t.Errorf("State = %s, want %s", p.State, NotActivated)
		}
		if want := filepath.Join(anchor, "venv", "bin", "activate"); p.ActivationScript != want {
			t.Errorf("ActivationScript = %q, want %q", p.ActivationScript, want)
		}
		if want := filepath.Dir(anchor); p.WorkDir != want {
			t.Errorf("WorkDir = %q, want %q", p.WorkDir, want)
		}
		if p.Activation != config.ActivationVirtual || p.Handoff != config.HandoffWait {
			t.Errorf("modes = (%s, %s), want defaults", p.Activation, p.Handoff)
		}
		want := []string{"python3", "-m", "CLAI.start_shell", "/home/u/proj"}
		if got := p.Command(); !slices.Equal(got, want) {
			t.Errorf("Command() = %q, want %q", got, want)
		}
	})

	t.Run("env active skips activation", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.EnvActive = true
		p, err := NewPlan(cfg)
		if err != nil {
			t.Fatalf("NewPlan() error: %v", err)
		}
		if p.State != Activated || p.ActivationScript != "" {
			t.Errorf("plan = %+v, want Activated without script", p)
		}
	})

	t.Run("no forward with extra args", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.ForwardCallerDir = false
		cfg.ExtraArgs = []string{"--debug"}
		p, err := NewPlan(cfg)
		if err != nil {
			t.Fatalf("NewPlan() error: %v", err)
		}
		want := []string{"-m", "CLAI.start_shell", "--debug"}
		if !slices.Equal(p.Args, want) {
			t.Errorf("Args = %q, want %q", p.Args, want)
		}
	})

	t.Run("absolute paths kept", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.WorkDir = "/srv/clai"
		cfg.ActivationScript = "/srv/venv/bin/activate"
		p, err := NewPlan(cfg)
		if err != nil {
			t.Fatalf("NewPlan() error: %v", err)
		}
		if p.WorkDir != filepath.Clean("/srv/clai") || p.ActivationScript != filepath.Clean("/srv/venv/bin/activate") {
			t.Errorf("plan paths = (%q, %q)", p.WorkDir, p.ActivationScript)
		}
	})

	t.Run("relative anchor", func(t *testing.T) {
		t.Parallel()
		cfg := base
		cfg.AnchorDir = "launcher"
		if _, err := NewPlan(cfg); !errors.Is(err, ErrAnchorUnresolved) {
			t.Errorf("NewPlan() error = %v, want ErrAnchorUnresolved", err)
		}
	})
}

func TestPlan_String(t *testing.T) {
	t.Parallel()

	p := &Plan{Interpreter: "python3", Args: []string{"-m", "CLAI.start_shell", "/home/u/my proj"}}
	want := "python3 -m CLAI.start_shell '/home/u/my proj'"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
