// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/dockerino/dockerino/internal/config"
	"github.com/dockerino/dockerino/internal/engineapi"
	"github.com/dockerino/dockerino/internal/issue"
)

// Exit codes follow sysexits(3) where one fits.
const (
	ExitFailure           = 1
	ExitEngineUnavailable = 69
	ExitConfig            = 78
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error

	// rendered is set once the failure has been printed to stderr.
	rendered bool
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor picks the process exit code for a command failure.
func exitCodeFor(err error) int {
	if kind, ok := engineapi.KindOf(err); ok && kind == engineapi.KindConnection {
		return ExitEngineUnavailable
	}
	if errors.Is(err, config.ErrInvalidConfig) {
		return ExitConfig
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.IssueId == issue.ConfigLoadFailedId {
		return ExitConfig
	}
	return ExitFailure
}
