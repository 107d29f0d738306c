// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"slices"
	"testing"
)

func TestEnvToMap(t *testing.T) {
	t.Parallel()

	env := EnvToMap([]string{"A=1", "B=x=y", "A=2", "broken", "=nokey", "EMPTY="})
	want := map[string]string{"A": "2", "B": "x=y", "EMPTY": ""}
	if len(env) != len(want) {
		t.Fatalf("EnvToMap() = %v, want %v", env, want)
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("env[%q] = %q, want %q", k, env[k], v)
		}
	}
}

func TestEnvToSlice_Sorted(t *testing.T) {
	t.Parallel()

	got := EnvToSlice(map[string]string{"Z": "26", "A": "1", "M": ""})
	want := []string{"A=1", "M=", "Z=26"}
	if !slices.Equal(got, want) {
		t.Errorf("EnvToSlice() = %q, want %q", got, want)
	}
}

func TestRestoreBookkeeping(t *testing.T) {
	t.Parallel()

	base := map[string]string{"PWD": "/caller", "SHLVL": "1"}
	activated := map[string]string{"PWD": "/anchor", "SHLVL": "2", "OLDPWD": "/x", "_": "/usr/bin/env", "KEEP": "1"}
	restoreBookkeeping(base, activated)

	want := map[string]string{"PWD": "/caller", "SHLVL": "1", "KEEP": "1"}
	if len(activated) != len(want) {
		t.Fatalf("restoreBookkeeping() = %v, want %v", activated, want)
	}
	for k, v := range want {
		if activated[k] != v {
			t.Errorf("%s = %q, want %q", k, activated[k], v)
		}
	}
}
