// SPDX-License-Identifier: MPL-2.0

// Package buildctx packs a directory into the gzip-compressed tar stream the
// engine expects as an image build context, honoring .dockerignore.
package buildctx
