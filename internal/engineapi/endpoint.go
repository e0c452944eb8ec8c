// SPDX-License-Identifier: MPL-2.0

package engineapi

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const (
	// MethodGet is the HTTP GET method.
	MethodGet Method = http.MethodGet
	// MethodPost is the HTTP POST method.
	MethodPost Method = http.MethodPost
	// MethodDelete is the HTTP DELETE method.
	MethodDelete Method = http.MethodDelete

	// HostHeader is the header every endpoint carries with an empty value.
	HostHeader = "Host"
	// ContentTypeHeader is the canonical name of the content type header.
	ContentTypeHeader = "Content-Type"
)

type (
	// Method is an HTTP method accepted by the engine API surface.
	// Only GET, POST and DELETE are used.
	Method string

	// HeaderField is a single header name/value pair. Names keep the case the
	// caller supplied them in.
	HeaderField struct {
		Name  string
		Value string
	}

	// Endpoint is an immutable, transport-ready description of one API call.
	// Obtain one from EndpointBuilder.Build or BuildEndpoint.
	Endpoint struct {
		method  Method
		path    string
		query   string
		headers []HeaderField
		body    []byte
	}

	// EndpointBuilder accumulates the parts of an Endpoint. It can be mutated
	// freely; Build snapshots the current state into a new Endpoint.
	EndpointBuilder struct {
		method  Method
		path    string
		query   string
		headers []HeaderField
		body    []byte
	}
)

// IsValid reports whether m is one of the supported methods.
func (m Method) IsValid() (bool, []error) {
	switch m {
	case MethodGet, MethodPost, MethodDelete:
		return true, nil
	default:
		return false, []error{NewError(KindMalformedRequest, "validate method", fmt.Errorf("unsupported method %q", string(m)))}
	}
}

// String returns the method name.
func (m Method) String() string { return string(m) }

// NewEndpointBuilder starts an endpoint for method and path.
func NewEndpointBuilder(method Method, path string) *EndpointBuilder {
	return &EndpointBuilder{method: method, path: path}
}

// Method replaces the HTTP method.
func (b *EndpointBuilder) Method(m Method) *EndpointBuilder {
	b.method = m
	return b
}

// Path replaces the endpoint path.
func (b *EndpointBuilder) Path(path string) *EndpointBuilder {
	b.path = path
	return b
}

// Query sets the already-encoded query string, appended verbatim after "?".
// A leading "?" is tolerated and stripped.
func (b *EndpointBuilder) Query(rawQuery string) *EndpointBuilder {
	b.query = strings.TrimPrefix(rawQuery, "?")
	return b
}

// Header appends a header. Repeated names are kept, not deduplicated.
func (b *EndpointBuilder) Header(name, value string) *EndpointBuilder {
	b.headers = append(b.headers, HeaderField{Name: name, Value: value})
	return b
}

// Headers appends every entry of h, in sorted name order so the result does
// not depend on map iteration.
func (b *EndpointBuilder) Headers(h map[string]string) *EndpointBuilder {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		b.Header(name, h[name])
	}
	return b
}

// Body sets the request body. A non-empty contentType is appended as a
// Content-Type header.
func (b *EndpointBuilder) Body(data []byte, contentType string) *EndpointBuilder {
	b.body = data
	if contentType != "" {
		b.Header(ContentTypeHeader, contentType)
	}
	return b
}

// Build validates the accumulated state and returns an independent snapshot.
// Later changes to the builder, or to slices passed into it, do not affect
// the returned Endpoint.
func (b *EndpointBuilder) Build() (Endpoint, error) {
	if valid, errs := b.method.IsValid(); !valid {
		return Endpoint{}, errs[0]
	}
	if err := validatePath(b.path); err != nil {
		return Endpoint{}, err
	}
	if err := validateQuery(b.query); err != nil {
		return Endpoint{}, err
	}

	headers := make([]HeaderField, 0, len(b.headers)+1)
	headers = append(headers, HeaderField{Name: HostHeader, Value: ""})
	for _, h := range b.headers {
		if !httpguts.ValidHeaderFieldName(h.Name) {
			return Endpoint{}, NewError(KindMalformedRequest, "validate header", fmt.Errorf("invalid header name %q", h.Name))
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return Endpoint{}, NewError(KindMalformedRequest, "validate header", fmt.Errorf("invalid value for header %q", h.Name))
		}
		headers = append(headers, h)
	}

	body := []byte{}
	if len(b.body) > 0 {
		body = slices.Clone(b.body)
	}

	return Endpoint{
		method:  b.method,
		path:    b.path,
		query:   b.query,
		headers: headers,
		body:    body,
	}, nil
}

// BuildEndpoint is the one-shot form of EndpointBuilder. headers and body are
// optional (nil).
func BuildEndpoint(method Method, path, rawQuery string, headers map[string]string, body []byte) (Endpoint, error) {
	return NewEndpointBuilder(method, path).
		Query(rawQuery).
		Headers(headers).
		Body(body, "").
		Build()
}

// Method returns the HTTP method.
func (e Endpoint) Method() Method { return e.method }

// Path returns the absolute endpoint path.
func (e Endpoint) Path() string { return e.path }

// Query returns the raw query string without the leading "?".
func (e Endpoint) Query() string { return e.query }

// RequestURI returns the path followed by "?query" when a query is present.
func (e Endpoint) RequestURI() string {
	if e.query == "" {
		return e.path
	}
	return e.path + "?" + e.query
}

// Headers returns a copy of the header list. The first entry is always the
// empty Host header.
func (e Endpoint) Headers() []HeaderField {
	return slices.Clone(e.headers)
}

// Header returns the value of the last header named name (exact match).
func (e Endpoint) Header(name string) (string, bool) {
	for i := len(e.headers) - 1; i >= 0; i-- {
		if e.headers[i].Name == name {
			return e.headers[i].Value, true
		}
	}
	return "", false
}

// Body returns a copy of the body. An endpoint without a body has an empty,
// non-nil body.
func (e Endpoint) Body() []byte {
	return slices.Clone(e.body)
}

// validatePath requires an absolute path that parses as a request URI and
// contains no query, fragment, whitespace or control characters.
func validatePath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return NewError(KindMalformedRequest, "validate path", fmt.Errorf("path %q must begin with '/'", path))
	}
	if i := strings.IndexFunc(path, invalidURIRune); i >= 0 {
		return NewError(KindMalformedRequest, "validate path", fmt.Errorf("path %q contains invalid character at %d", path, i))
	}
	if strings.ContainsAny(path, "?#") {
		return NewError(KindMalformedRequest, "validate path", fmt.Errorf("path %q must not contain a query or fragment", path))
	}
	if _, err := url.ParseRequestURI(path); err != nil {
		return NewError(KindMalformedRequest, "validate path", err)
	}
	return nil
}

func validateQuery(query string) error {
	if i := strings.IndexFunc(query, invalidURIRune); i >= 0 {
		return NewError(KindMalformedRequest, "validate query", fmt.Errorf("query contains invalid character at %d", i))
	}
	if strings.Contains(query, "#") {
		return NewError(KindMalformedRequest, "validate query", fmt.Errorf("query must not contain a fragment"))
	}
	return nil
}

func invalidURIRune(r rune) bool {
	return r <= ' ' || r == 0x7f
}
