// SPDX-License-Identifier: MPL-2.0

// Package engineapi is the request/response pipeline shared by every container
// engine API call made over a Unix domain socket.
//
// A call flows through four stages:
//
//  1. EndpointBuilder assembles an immutable Endpoint (method, path, raw query,
//     headers, body). The Host header is always present and empty.
//  2. Transport sends the Endpoint over a fresh socket connection and returns a
//     RawResponse. Idle connection pooling is disabled unless configured.
//  3. Translate turns responses whose status is in the classified failure set
//     (400, 404, 409, 500) into *APIError values. Every other status passes
//     through untouched, including 2xx and unexpected 4xx/5xx codes.
//  4. ReadBody, DecodeText and DecodeJSON buffer the whole body before decoding.
//
// Client composes the stages. Every failure is one of the ErrorKind values and
// can be matched with errors.Is against the kind sentinels or with KindOf.
//
// The package performs no logging, no retries and no timeouts of its own;
// cancellation comes from the caller's context.
package engineapi
