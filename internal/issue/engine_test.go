// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dockerino/dockerino/internal/engineapi"
)

func TestIdFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Id
	}{
		{name: "nil", err: nil, want: 0},
		{name: "foreign", err: errors.New("other"), want: 0},
		{name: "connection", err: engineapi.NewError(engineapi.KindConnection, "dial engine socket", errors.New("refused")), want: EngineUnreachableId},
		{name: "transport", err: engineapi.NewError(engineapi.KindTransport, "send request", context.DeadlineExceeded), want: EngineTransportFailedId},
		{name: "not found", err: &engineapi.APIError{StatusCode: http.StatusNotFound, Message: "No such image"}, want: ImageNotFoundId},
		{name: "conflict", err: &engineapi.APIError{StatusCode: http.StatusConflict, Message: "in use"}, want: ImageConflictId},
		{name: "internal", err: &engineapi.APIError{StatusCode: http.StatusInternalServerError, Message: "oops"}, want: EngineInternalErrorId},
		{name: "bad request", err: &engineapi.APIError{StatusCode: http.StatusBadRequest, Message: "bad filter"}, want: BadRequestId},
		{name: "body decode", err: &engineapi.BodyDecodeError{Offset: 3}, want: ResponseInvalidId},
		{name: "deserialization", err: &engineapi.DeserializationError{Target: "[]images.Summary"}, want: ResponseInvalidId},
		{name: "serialization", err: engineapi.NewError(engineapi.KindSerialization, "encode filters", errors.New("bad key")), want: BadRequestId},
		{name: "wrapped api error", err: fmt.Errorf("inspect: %w", &engineapi.APIError{StatusCode: http.StatusNotFound}), want: ImageNotFoundId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IdFor(tt.err); got != tt.want {
				t.Errorf("IdFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFromEngineError(t *testing.T) {
	t.Parallel()

	if FromEngineError(nil, "list images", "") != nil {
		t.Error("FromEngineError(nil) should be nil")
	}

	apiErr := &engineapi.APIError{StatusCode: http.StatusNotFound, Message: "No such image: ghost"}
	err := FromEngineError(apiErr, "inspect image", "ghost")

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error %T is not *ActionableError", err)
	}
	if ae.IssueId != ImageNotFoundId || !ae.HasSuggestions() {
		t.Errorf("ActionableError = %+v", ae)
	}
	if !engineapi.IsNotFound(err) {
		t.Error("the engine error must stay reachable through errors.As")
	}
	if !strings.Contains(err.Error(), "failed to inspect image: ghost: engine API error (status 404 Not Found)") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFromEngineError_KeepsActionableError(t *testing.T) {
	t.Parallel()

	original := NewErrorContext().WithOperation("load configuration").WithIssue(ConfigLoadFailedId).Build()
	got := FromEngineError(fmt.Errorf("outer: %w", original), "list images", "")
	if got != error(original) {
		t.Errorf("FromEngineError() = %v, want the same ActionableError", got)
	}
}

func TestFromEngineError_UnknownKindHasNoIssue(t *testing.T) {
	t.Parallel()

	err := FromEngineError(errors.New("disk full"), "save image", "alpine")
	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error %T is not *ActionableError", err)
	}
	if ae.IssueId != 0 || ae.HasSuggestions() {
		t.Errorf("ActionableError = %+v, want no issue and no suggestions", ae)
	}
}
