// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers cover directory operations (MustChdir, MustMkdirAll,
// MustWriteFile, MustEvalSymlinks) and VenvTree, a
// throwaway launcher checkout with a fake virtualenv whose interpreter records
// how it was invoked.
package testutil
