// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved, fix
// suggestions and the exit status the launcher should report. The issue
// catalog holds longer Markdown pages, rendered with glamour, for each kind of
// launcher failure.
package issue
