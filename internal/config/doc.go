// SPDX-License-Identifier: MPL-2.0

// Package config handles launcher configuration using Viper.
//
// Configuration is read from a CUE file (config.cue) that is validated against
// an embedded schema before being merged over built-in defaults. Every key
// can also be overridden from the environment with the CLAI_ prefix, where
// nested keys use underscores (ui.verbose becomes CLAI_UI_VERBOSE).
//
// Lookup order for the file:
//  1. --config flag (exclusive; a missing file is an error)
//  2. <config dir>/config.cue (XDG_CONFIG_HOME/clai on Linux)
//  3. ./config.cue in the current directory
//
// If no file is found the defaults are used.
package config
