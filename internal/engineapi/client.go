// SPDX-License-Identifier: MPL-2.0

package engineapi

import "context"

// Client composes the transport, the error translator and the decoders.
// The zero value is not usable; create one with NewClient.
type Client struct {
	transport *Transport
}

// NewClient creates a client bound to the engine socket at socketPath.
func NewClient(socketPath string, opts ...TransportOption) *Client {
	return &Client{transport: NewTransport(socketPath, opts...)}
}

// NewClientWithTransport creates a client around an existing transport.
func NewClientWithTransport(t *Transport) *Client {
	return &Client{transport: t}
}

// Transport returns the underlying transport.
func (c *Client) Transport() *Transport { return c.transport }

// Close releases pooled connections held by the transport.
func (c *Client) Close() { c.transport.Close() }

// Request sends ep and classifies the response. On success the caller owns
// the returned response body.
func (c *Client) Request(ctx context.Context, ep Endpoint) (*RawResponse, error) {
	resp, err := c.transport.Send(ctx, ep)
	if err != nil {
		return nil, err
	}
	return Translate(resp)
}

// Call builds an endpoint from its parts and sends it like Request.
func (c *Client) Call(ctx context.Context, method Method, path, rawQuery string, headers map[string]string, body []byte) (*RawResponse, error) {
	ep, err := BuildEndpoint(method, path, rawQuery, headers, body)
	if err != nil {
		return nil, err
	}
	return c.Request(ctx, ep)
}

// Bytes sends ep and returns the fully buffered body.
func (c *Client) Bytes(ctx context.Context, ep Endpoint) ([]byte, error) {
	resp, err := c.Request(ctx, ep)
	if err != nil {
		return nil, err
	}
	return ReadBody(resp)
}

// Text sends ep and returns the body as UTF-8 text.
func (c *Client) Text(ctx context.Context, ep Endpoint) (string, error) {
	resp, err := c.Request(ctx, ep)
	if err != nil {
		return "", err
	}
	return DecodeText(resp)
}

// Discard sends ep and drops the body, for calls whose success carries no data.
func (c *Client) Discard(ctx context.Context, ep Endpoint) error {
	resp, err := c.Request(ctx, ep)
	if err != nil {
		return err
	}
	return resp.Close()
}

// Fetch sends ep and decodes the JSON body into a T.
func Fetch[T any](ctx context.Context, c *Client, ep Endpoint) (T, error) {
	resp, err := c.Request(ctx, ep)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeJSON[T](resp)
}
