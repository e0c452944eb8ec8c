// SPDX-License-Identifier: MPL-2.0

package engineapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestErrorKind_StringAndSentinel(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, k := range allKinds {
		name := k.String()
		if name == "" || name == "unknown" {
			t.Errorf("ErrorKind(%d).String() = %q", int(k), name)
		}
		if seen[name] {
			t.Errorf("duplicate kind name %q", name)
		}
		seen[name] = true

		if k.Sentinel() == nil {
			t.Errorf("ErrorKind(%s).Sentinel() = nil", name)
		}
	}

	if ErrorKind(0).Sentinel() != nil {
		t.Error("zero ErrorKind should have no sentinel")
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantOK   bool
	}{
		{name: "nil", err: nil, wantOK: false},
		{name: "foreign error", err: io.EOF, wantOK: false},
		{name: "connection", err: NewError(KindConnection, "dial", io.EOF), wantKind: KindConnection, wantOK: true},
		{name: "transport", err: NewError(KindTransport, "send", io.ErrUnexpectedEOF), wantKind: KindTransport, wantOK: true},
		{name: "api", err: &APIError{StatusCode: http.StatusNotFound, Message: "gone"}, wantKind: KindAPI, wantOK: true},
		{name: "body decode", err: &BodyDecodeError{Offset: 3}, wantKind: KindBodyDecode, wantOK: true},
		{name: "deserialization", err: &DeserializationError{Target: "[]string", Err: io.EOF}, wantKind: KindDeserialization, wantOK: true},
		{name: "serialization", err: NewError(KindSerialization, "encode filters", io.EOF), wantKind: KindSerialization, wantOK: true},
		{name: "wrapped api", err: fmt.Errorf("remove image: %w", &APIError{StatusCode: 409, Message: "in use"}), wantKind: KindAPI, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kind, ok := KindOf(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("KindOf() ok = %v, want %v", ok, tt.wantOK)
			}
			if kind != tt.wantKind {
				t.Errorf("KindOf() = %s, want %s", kind, tt.wantKind)
			}
		})
	}
}

func TestError_UnwrapsSentinelAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewError(KindConnection, "dial engine socket", cause)

	if !errors.Is(err, ErrConnection) {
		t.Error("errors.Is(err, ErrConnection) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrTransport) {
		t.Error("connection error must not match ErrTransport")
	}

	want := "dial engine socket: engine connection failed: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAPIError(t *testing.T) {
	t.Parallel()

	err := &APIError{StatusCode: http.StatusNotFound, Message: "No such image: abc"}

	if !errors.Is(err, ErrAPI) {
		t.Error("errors.Is(err, ErrAPI) = false")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() = false")
	}
	if IsConflict(err) {
		t.Error("IsConflict() = true for 404")
	}
	if !IsStatus(fmt.Errorf("wrapped: %w", err), http.StatusNotFound) {
		t.Error("IsStatus() should see through wrapping")
	}

	want := "engine API error (status 404 Not Found): No such image: abc"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestBodyDecodeError_Message(t *testing.T) {
	t.Parallel()

	err := &BodyDecodeError{StatusCode: 500, Offset: 4, Context: `"ab\xff"`, Err: errors.New("invalid UTF-8 sequence")}
	msg := err.Error()

	for _, part := range []string{"status 500", "at byte 4", `near "ab\xff"`, "invalid UTF-8 sequence"} {
		if !strings.Contains(msg, part) {
			t.Errorf("Error() = %q, missing %q", msg, part)
		}
	}

	noOffset := &BodyDecodeError{Offset: -1}
	if strings.Contains(noOffset.Error(), "at byte") {
		t.Errorf("Error() = %q, should omit offset when negative", noOffset.Error())
	}
}

func TestDeserializationError_NamesTarget(t *testing.T) {
	t.Parallel()

	cause := errors.New("unexpected end of JSON input")
	err := &DeserializationError{Target: "[]images.Summary", Err: cause}

	if !strings.Contains(err.Error(), "[]images.Summary") {
		t.Errorf("Error() = %q, want target type name", err.Error())
	}
	if !errors.Is(err, ErrDeserialization) || !errors.Is(err, cause) {
		t.Error("DeserializationError should unwrap to sentinel and cause")
	}
}
