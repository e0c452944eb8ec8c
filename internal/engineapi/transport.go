// SPDX-License-Identifier: MPL-2.0

package engineapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultSocketPath is the conventional location of the engine socket.
	DefaultSocketPath = "/var/run/docker.sock"

	// socketAuthority is the placeholder authority used in request URLs.
	// net/http requires one; the connection itself always goes to the socket.
	socketAuthority = "localhost"
)

type (
	// TransportOption configures a Transport.
	TransportOption func(*transportConfig)

	transportConfig struct {
		apiVersion          string
		maxIdleConnsPerHost int
		dialer              *net.Dialer
	}

	// Transport owns the socket path and an HTTP engine bound to it.
	// It is safe for concurrent use; each call gets its own connection unless
	// idle pooling was enabled with WithMaxIdleConnsPerHost.
	Transport struct {
		socketPath string
		apiVersion string
		client     *http.Client
	}

	// RawResponse is an unclassified engine response. The caller owns Body and
	// must close it, which the decode helpers do.
	RawResponse struct {
		StatusCode int
		Header     http.Header
		Body       io.ReadCloser
	}
)

// WithAPIVersion prefixes every request path with "/<version>" (e.g., "v1.45").
// An empty version leaves paths unversioned.
func WithAPIVersion(version string) TransportOption {
	return func(c *transportConfig) {
		c.apiVersion = strings.Trim(version, "/")
	}
}

// WithMaxIdleConnsPerHost sets the idle connection pool size. Zero (the
// default) disables keep-alive entirely, so every call dials the socket.
func WithMaxIdleConnsPerHost(n int) TransportOption {
	return func(c *transportConfig) {
		c.maxIdleConnsPerHost = n
	}
}

// WithDialer replaces the dialer used to reach the socket.
func WithDialer(d *net.Dialer) TransportOption {
	return func(c *transportConfig) {
		c.dialer = d
	}
}

// NewTransport creates a Transport for the socket at socketPath.
func NewTransport(socketPath string, opts ...TransportOption) *Transport {
	cfg := transportConfig{dialer: &net.Dialer{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	dialer := cfg.dialer
	ht := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", socketPath)
		},
		DisableKeepAlives:   cfg.maxIdleConnsPerHost <= 0,
		MaxIdleConnsPerHost: max(cfg.maxIdleConnsPerHost, 0),
		DisableCompression:  true,
	}

	return &Transport{
		socketPath: socketPath,
		apiVersion: cfg.apiVersion,
		client:     &http.Client{Transport: ht},
	}
}

// SocketPath returns the socket the transport dials.
func (t *Transport) SocketPath() string { return t.socketPath }

// APIVersion returns the configured path prefix version, or "".
func (t *Transport) APIVersion() string { return t.apiVersion }

// Close releases idle connections, if any were pooled.
func (t *Transport) Close() {
	t.client.CloseIdleConnections()
}

// Send transmits ep and returns the raw response without examining its status.
// Failures to dial the socket or write the request yield KindConnection
// errors; any other I/O failure, including cancellation of ctx, yields
// KindTransport.
func (t *Transport) Send(ctx context.Context, ep Endpoint) (*RawResponse, error) {
	req, err := t.newRequest(ctx, ep)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classifySendError(err)
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

func (t *Transport) newRequest(ctx context.Context, ep Endpoint) (*http.Request, error) {
	uri := ep.RequestURI()
	if t.apiVersion != "" {
		uri = "/" + t.apiVersion + uri
	}

	u, err := url.Parse("http://" + socketAuthority + uri)
	if err != nil {
		return nil, NewError(KindMalformedRequest, "parse request URI", err)
	}

	var body io.Reader = http.NoBody
	if b := ep.Body(); len(b) > 0 {
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method().String(), u.String(), body)
	if err != nil {
		return nil, NewError(KindMalformedRequest, "create request", err)
	}

	for _, h := range ep.Headers() {
		if http.CanonicalHeaderKey(h.Name) == HostHeader {
			if h.Value != "" {
				req.Host = h.Value
			}
			continue
		}
		// Direct map access keeps the caller's header name casing on the wire.
		req.Header[h.Name] = append(req.Header[h.Name], h.Value)
	}

	return req, nil
}

// classifySendError separates failures to reach the socket or hand it the
// request from failures while waiting on the response.
func classifySendError(err error) error {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return NewError(KindConnection, "dial engine socket", err)
		case "write":
			return NewError(KindConnection, "write request", err)
		}
	}
	return NewError(KindTransport, "send request", err)
}

// Close drains and closes the body so the connection can be reused when
// pooling is enabled.
func (r *RawResponse) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, r.Body)
	if err := r.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}
