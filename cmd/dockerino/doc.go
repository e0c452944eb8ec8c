// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dockerino.
//
// The root command loads configuration, applies the global flags and builds a
// logger before any subcommand runs. Image and search commands reach the
// engine through the App's ImageServiceFactory, so tests can substitute a fake
// service or a fake engine socket.
package cmd
