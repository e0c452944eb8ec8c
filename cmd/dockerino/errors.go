// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dockerino/dockerino/internal/issue"
)

// issueStyle is the glamour style used for catalog entries.
const issueStyle = "auto"

// fail renders err on stderr and converts it into an ExitError that the
// top-level error handler will not print again.
func (a *App) fail(cmd *cobra.Command, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.rendered {
		return exitErr
	}

	renderError(a.stderr, err, a.verbose())
	return &ExitError{Code: exitCodeFor(err), Err: err, rendered: true}
}

// run adapts a handler so every failure goes through fail.
func (a *App) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return a.fail(cmd, err)
		}
		return nil
	}
}

// renderError prints err. ActionableErrors show their suggestions, and in
// verbose mode the error chain and the linked catalog entry.
func renderError(w io.Writer, err error, verbose bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+err.Error())
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+ae.Format(verbose))

	if !verbose {
		return
	}
	if entry := ae.Issue(); entry != nil {
		rendered, renderErr := entry.Render(issueStyle)
		if renderErr != nil {
			log.Warn("Failed to render issue catalog entry", "issue", ae.IssueId, "error", renderErr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}
