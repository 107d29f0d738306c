// SPDX-License-Identifier: MPL-2.0

// Package interpreter locates the Python interpreter inside an activated
// virtual environment and checks its version against a semver constraint.
//
// Lookups use the PATH of the environment the downstream will run with, not
// the launcher's own PATH, so an activated venv's bin directory wins.
package interpreter
