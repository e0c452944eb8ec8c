// SPDX-License-Identifier: MPL-2.0

// Package query encodes the two query-string shapes the engine API accepts.
//
// Filters become a JSON object of string arrays, percent-encoded as the single
// value of the "filters" parameter. Build parameters become a flat
// key=value&key=value string with one scalar per key; list- and map-shaped
// options are serialized to JSON text when they are set.
//
// Both encoders are pure. They fail only with an engineapi serialization error,
// before any request is sent.
package query
