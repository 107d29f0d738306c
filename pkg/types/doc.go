// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the launcher packages.
//
// Each type carries its own validation so that configuration and CLI input can
// be rejected before any process is started.
package types
