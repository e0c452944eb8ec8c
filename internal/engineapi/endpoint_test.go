// SPDX-License-Identifier: MPL-2.0

package engineapi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEndpointBuilder_AlwaysCarriesEmptyHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *EndpointBuilder
	}{
		{name: "bare", builder: NewEndpointBuilder(MethodGet, "/images/json")},
		{name: "with headers", builder: NewEndpointBuilder(MethodPost, "/images/x/push").Header("X-Registry-Auth", "abc")},
		{name: "with body", builder: NewEndpointBuilder(MethodPost, "/images/load").Body([]byte("tar"), "application/x-tar")},
		{name: "with query", builder: NewEndpointBuilder(MethodDelete, "/images/abc").Query("force=true")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ep, err := tt.builder.Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			headers := ep.Headers()
			if len(headers) == 0 || headers[0] != (HeaderField{Name: HostHeader, Value: ""}) {
				t.Fatalf("Headers()[0] = %+v, want empty Host", headers)
			}
			if v, ok := ep.Header(HostHeader); !ok || v != "" {
				t.Errorf("Header(Host) = %q, %v; want \"\", true", v, ok)
			}
		})
	}
}

func TestEndpointBuilder_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	body := []byte(`{"a":1}`)
	b := NewEndpointBuilder(MethodPost, "/build").
		Query("t=one").
		Header("X-First", "1").
		Body(body, "application/json")

	first, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	b.Method(MethodDelete).Path("/other").Query("t=two").Header("X-Second", "2")
	body[0] = 'X'

	if first.Method() != MethodPost {
		t.Errorf("Method() = %s, want POST", first.Method())
	}
	if first.Path() != "/build" {
		t.Errorf("Path() = %q, want /build", first.Path())
	}
	if first.Query() != "t=one" {
		t.Errorf("Query() = %q, want t=one", first.Query())
	}
	if _, ok := first.Header("X-Second"); ok {
		t.Error("header added after Build leaked into snapshot")
	}
	if got := string(first.Body()); got != `{"a":1}` {
		t.Errorf("Body() = %q, want original body", got)
	}

	// Mutating returned copies must not affect the endpoint either.
	first.Body()[0] = 'Y'
	first.Headers()[0].Value = "mutated"
	if got := string(first.Body()); got != `{"a":1}` {
		t.Errorf("Body() = %q after mutating a copy", got)
	}
	if v, _ := first.Header(HostHeader); v != "" {
		t.Errorf("Host = %q after mutating a copy", v)
	}

	second, err := b.Build()
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if second.RequestURI() != "/other?t=two" {
		t.Errorf("second RequestURI() = %q, want /other?t=two", second.RequestURI())
	}
}

func TestBuildEndpoint(t *testing.T) {
	t.Parallel()

	ep, err := BuildEndpoint(MethodPost, "/images/create", "?fromSrc=-", map[string]string{
		"X-Registry-Auth": "e30=",
		"Content-Type":    "application/x-tar",
	}, nil)
	if err != nil {
		t.Fatalf("BuildEndpoint() error = %v", err)
	}

	want := []HeaderField{
		{Name: "Host", Value: ""},
		{Name: "Content-Type", Value: "application/x-tar"},
		{Name: "X-Registry-Auth", Value: "e30="},
	}
	if diff := cmp.Diff(want, ep.Headers()); diff != "" {
		t.Errorf("Headers() mismatch (-want +got):\n%s", diff)
	}
	if ep.RequestURI() != "/images/create?fromSrc=-" {
		t.Errorf("RequestURI() = %q", ep.RequestURI())
	}
	if ep.Body() == nil || len(ep.Body()) != 0 {
		t.Errorf("Body() = %v, want empty non-nil", ep.Body())
	}
}

func TestEndpointBuilder_RejectsMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *EndpointBuilder
	}{
		{name: "relative path", builder: NewEndpointBuilder(MethodGet, "images/json")},
		{name: "empty path", builder: NewEndpointBuilder(MethodGet, "")},
		{name: "space in path", builder: NewEndpointBuilder(MethodGet, "/images/my image/json")},
		{name: "query in path", builder: NewEndpointBuilder(MethodGet, "/images/json?all=1")},
		{name: "fragment in query", builder: NewEndpointBuilder(MethodGet, "/images/json").Query("a=1#frag")},
		{name: "unsupported method", builder: NewEndpointBuilder(Method("PUT"), "/images/json")},
		{name: "bad header name", builder: NewEndpointBuilder(MethodGet, "/_ping").Header("Bad Header", "x")},
		{name: "bad header value", builder: NewEndpointBuilder(MethodGet, "/_ping").Header("X-Val", "a\r\nb")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("Build() error = nil, want malformed request")
			}
			if !errors.Is(err, ErrMalformedRequest) {
				t.Errorf("Build() error = %v, want ErrMalformedRequest", err)
			}
		})
	}
}

func TestMethod_IsValid(t *testing.T) {
	t.Parallel()

	for _, m := range []Method{MethodGet, MethodPost, MethodDelete} {
		if ok, errs := m.IsValid(); !ok || len(errs) != 0 {
			t.Errorf("%s.IsValid() = %v, %v", m, ok, errs)
		}
	}
	if ok, errs := Method("PATCH").IsValid(); ok || len(errs) != 1 {
		t.Errorf("PATCH.IsValid() = %v, %v; want false with one error", ok, errs)
	}
}
