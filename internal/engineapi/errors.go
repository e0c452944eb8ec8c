// SPDX-License-Identifier: MPL-2.0

package engineapi

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// KindConnection means the engine socket could not be dialed.
	KindConnection ErrorKind = iota + 1
	// KindTransport means an I/O failure happened while the request was in flight.
	KindTransport
	// KindBodyDecode means a response body was not valid UTF-8 or not the
	// structure the pipeline itself expected (such as the error envelope).
	KindBodyDecode
	// KindDeserialization means a JSON body did not match the caller's target type.
	KindDeserialization
	// KindAPI means the engine answered with a classified failure status.
	KindAPI
	// KindSerialization means query parameters could not be encoded.
	KindSerialization
	// KindMalformedRequest means an endpoint could not be turned into a request.
	KindMalformedRequest
)

var (
	// ErrConnection is the sentinel for KindConnection failures.
	ErrConnection = errors.New("engine connection failed")
	// ErrTransport is the sentinel for KindTransport failures.
	ErrTransport = errors.New("engine transport failed")
	// ErrBodyDecode is the sentinel for KindBodyDecode failures.
	ErrBodyDecode = errors.New("response body decode failed")
	// ErrDeserialization is the sentinel for KindDeserialization failures.
	ErrDeserialization = errors.New("response deserialization failed")
	// ErrAPI is the sentinel wrapped by every *APIError.
	ErrAPI = errors.New("engine API error")
	// ErrSerialization is the sentinel for KindSerialization failures.
	ErrSerialization = errors.New("query serialization failed")
	// ErrMalformedRequest is the sentinel for KindMalformedRequest failures.
	ErrMalformedRequest = errors.New("malformed request")

	allKinds = []ErrorKind{
		KindConnection,
		KindTransport,
		KindBodyDecode,
		KindDeserialization,
		KindAPI,
		KindSerialization,
		KindMalformedRequest,
	}
)

type (
	// ErrorKind is the closed set of failure categories a call can end in.
	ErrorKind int

	// Error is the generic failure value for kinds that carry no extra payload
	// (connection, transport, serialization, malformed request).
	Error struct {
		// Kind is the failure category.
		Kind ErrorKind
		// Op names the step that failed (e.g., "dial engine socket").
		Op string
		// Err is the underlying cause, if any.
		Err error
	}

	// APIError is returned when the engine answers with a classified failure
	// status. Message is the engine-supplied "message" field.
	APIError struct {
		StatusCode int
		Message    string
	}

	// BodyDecodeError is returned when a body is not valid UTF-8, or when an
	// error envelope for a classified status cannot be decoded.
	BodyDecodeError struct {
		// StatusCode is the response status when the failure happened while
		// decoding an error envelope; zero otherwise.
		StatusCode int
		// Offset is the byte offset of the first offending byte, or -1 when
		// no single byte is to blame.
		Offset int
		// Context is a short quoted window of the body around Offset.
		Context string
		// Err is the underlying cause, if any.
		Err error
	}

	// DeserializationError is returned when a JSON body cannot be decoded into
	// the requested target type.
	DeserializationError struct {
		// Target is the Go type name the body was decoded into.
		Target string
		// Err is the underlying JSON diagnostic.
		Err error
	}
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTransport:
		return "transport"
	case KindBodyDecode:
		return "body-decode"
	case KindDeserialization:
		return "deserialization"
	case KindAPI:
		return "api"
	case KindSerialization:
		return "serialization"
	case KindMalformedRequest:
		return "malformed-request"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinel returns the sentinel error matching the kind, or nil for unknown kinds.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindTransport:
		return ErrTransport
	case KindBodyDecode:
		return ErrBodyDecode
	case KindDeserialization:
		return ErrDeserialization
	case KindAPI:
		return ErrAPI
	case KindSerialization:
		return ErrSerialization
	case KindMalformedRequest:
		return ErrMalformedRequest
	default:
		return nil
	}
}

// NewError creates an *Error of the given kind.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the failure category of err. The second result is false when
// err is nil or does not belong to this package's taxonomy.
func KindOf(err error) (ErrorKind, bool) {
	if err == nil {
		return 0, false
	}
	for _, k := range allKinds {
		if errors.Is(err, k.Sentinel()) {
			return k, true
		}
	}
	return 0, false
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// IsNotFound reports whether err is a 404 *APIError.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsConflict reports whether err is a 409 *APIError.
func IsConflict(err error) bool {
	return IsStatus(err, http.StatusConflict)
}

// Error implements the error interface.
func (e *Error) Error() string {
	sentinel := e.Kind.Sentinel()
	msg := e.Kind.String() + " error"
	if sentinel != nil {
		msg = sentinel.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := e.Kind.Sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Error implements the error interface.
func (e *APIError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("engine API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("engine API error (status %d %s): %s", e.StatusCode, text, e.Message)
}

// Unwrap returns ErrAPI for errors.Is() compatibility.
func (e *APIError) Unwrap() error { return ErrAPI }

// Error implements the error interface.
func (e *BodyDecodeError) Error() string {
	msg := ErrBodyDecode.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at byte %d", msg, e.Offset)
	}
	if e.Context != "" {
		msg += " near " + e.Context
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes ErrBodyDecode and the underlying cause.
func (e *BodyDecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBodyDecode}
	}
	return []error{ErrBodyDecode, e.Err}
}

// Error implements the error interface.
func (e *DeserializationError) Error() string {
	return fmt.Sprintf("%s: decode into %s: %v", ErrDeserialization.Error(), e.Target, e.Err)
}

// Unwrap exposes ErrDeserialization and the underlying JSON diagnostic.
func (e *DeserializationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDeserialization}
	}
	return []error{ErrDeserialization, e.Err}
}
