// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"maps"
	"slices"
	"strings"
)

// shellBookkeeping lists variables a shell rewrites on its own. Their values
// after activation are taken from the base environment, not the shell.
var shellBookkeeping = []string{"_", "SHLVL", "PWD", "OLDPWD"}

// EnvToMap parses KEY=VALUE entries. Later entries win; malformed entries are dropped.
func EnvToMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// EnvToSlice converts an environment map to KEY=VALUE entries sorted by key.
func EnvToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, key := range slices.Sorted(maps.Keys(env)) {
		out = append(out, key+"="+env[key])
	}
	return out
}

// LookupEnv returns the value of key in environ.
func LookupEnv(environ []string, key string) (string, bool) {
	v, ok := EnvToMap(environ)[key]
	return v, ok
}

// restoreBookkeeping resets shell-managed variables in activated to their
// values in base, removing the ones base did not have.
func restoreBookkeeping(base, activated map[string]string) {
	for _, key := range shellBookkeeping {
		if v, ok := base[key]; ok {
			activated[key] = v
		} else {
			delete(activated, key)
		}
	}
}
