// SPDX-License-Identifier: MPL-2.0

// Package launcher starts the CLAI shell inside its virtual environment.
//
// A launch resolves the anchor directory, activates the virtual environment
// found there unless one is already active, and hands off to
// '<interpreter> -m <module> [caller dir] [args...]' running one directory
// above the anchor. The caller's original working directory is captured by
// the CLI before anything moves and travels through Config.CallerDir.
//
// Two activation backends are available:
//   - virtual: the activation script is interpreted in-process (mvdan/sh)
//   - native: the activation script is sourced by the host POSIX shell
//
// Both produce the environment the downstream module runs with. Handoff
// either waits for a child process and propagates its exit status, or on
// Unix replaces the launcher process entirely.
package launcher
