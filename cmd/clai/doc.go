// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for clai.
//
// The root command performs the launch itself: it captures the caller's
// working directory, loads configuration, resolves the anchor and hands
// control to the launcher. Subcommands inspect the setup (doctor) and
// manage the configuration file (config).
package cmd
