// SPDX-License-Identifier: MPL-2.0

// Package images is the image resource client. Each operation is a thin call
// site over engineapi: it picks a method and path, attaches encoded query
// parameters, headers and body, and decodes the result into the types below.
package images
