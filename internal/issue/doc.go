// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. FromEngineError derives those hints from engine error
// kinds, and the issue catalog holds longer Markdown guidance rendered with
// glamour in verbose mode.
package issue
