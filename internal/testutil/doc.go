// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the package tests.
//
// NewEngineServer serves an http.Handler on a throwaway Unix socket so the
// engine client can be exercised end to end without a real engine. The Must*
// helpers fail the test on error, and EngineSemaphore bounds how many
// integration tests talk to a real engine at once.
package testutil
