// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It centralizes OS name constants and the per-OS layout of Python virtual
// environments (bin/ on POSIX, Scripts/ on Windows).
package platform
