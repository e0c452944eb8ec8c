// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "list images"},
			expected: "failed to list images",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "inspect image", Resource: "alpine:3.20"},
			expected: "failed to inspect image: alpine:3.20",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "load configuration", Cause: errors.New("syntax error")},
			expected: "failed to load configuration: syntax error",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "remove image",
				Resource:  "alpine:3.20",
				Cause:     errors.New("image is in use"),
			},
			expected: "failed to remove image: alpine:3.20: image is in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_UnwrapAndIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := error(&ActionableError{Operation: "push image", Cause: fmt.Errorf("wrapped: %w", sentinel)})

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the sentinel through the cause")
	}
	if (&ActionableError{Operation: "x"}).Unwrap() != nil {
		t.Error("Unwrap() without a cause should be nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("connection refused")
	err := &ActionableError{
		Operation:   "list images",
		Resource:    "/var/run/docker.sock",
		Suggestions: []string{"Start the daemon", "Check --socket"},
		Cause:       fmt.Errorf("dial: %w", root),
	}

	short := err.Format(false)
	if !strings.HasPrefix(short, err.Error()) {
		t.Errorf("Format(false) should start with Error(), got %q", short)
	}
	if !strings.Contains(short, "\n  • Start the daemon\n  • Check --socket") {
		t.Errorf("Format(false) missing suggestions: %q", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Errorf("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. dial: connection refused", "2. connection refused"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q in %q", want, verbose)
		}
	}
}

func TestActionableError_FormatFollowsMultiCause(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("engine connection failed")
	cause := errors.New("no such file or directory")
	err := &ActionableError{
		Operation: "list images",
		Cause:     multiErr{errs: []error{sentinel, cause}},
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "2. no such file or directory") {
		t.Errorf("Format(true) should follow the concrete cause: %q", verbose)
	}
}

type multiErr struct{ errs []error }

func (m multiErr) Error() string   { return "multi" }
func (m multiErr) Unwrap() []error { return m.errs }

func TestActionableError_Issue(t *testing.T) {
	t.Parallel()

	if (&ActionableError{Operation: "x"}).Issue() != nil {
		t.Error("Issue() without an id should be nil")
	}
	got := (&ActionableError{Operation: "x", IssueId: ImageNotFoundId}).Issue()
	if got == nil || got.Id() != ImageNotFoundId {
		t.Errorf("Issue() = %v, want ImageNotFound entry", got)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("build image").
		WithResource("./app").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		WithIssue(BuildContextFailedId).
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "build image" || ae.Resource != "./app" || ae.Cause != cause {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 3 || ae.Suggestions[2] != "three" {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.IssueId != BuildContextFailedId {
		t.Errorf("IssueId = %d, want %d", ae.IssueId, BuildContextFailedId)
	}
	if !ae.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithResource("x").Wrap(errors.New("boom"))
	if ae := ctx.Build(); ae != nil {
		t.Errorf("Build() = %v, want nil", ae)
	}
	if err := ctx.BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want untyped nil", err)
	}
}
