// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/dockerino/config.cue on Linux,
// ~/Library/Application Support/dockerino/config.cue on macOS and
// %AppData%\dockerino\config.cue on Windows, falling back to ./config.cue.
// Every key can be overridden with a DOCKERINO_ environment variable, where
// nested keys use underscores (DOCKERINO_BUILD_COMPRESSION_LEVEL).
//
// Files are validated against the embedded config_schema.cue before being
// merged over the defaults returned by DefaultConfig.
package config
