// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/dockerino/dockerino/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "dockerino"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides (DOCKERINO_SOCKET_PATH, ...).
	EnvPrefix = "DOCKERINO"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the dockerino configuration directory: $XDG_CONFIG_HOME
// (or ~/.config) on Linux, ~/Library/Application Support on macOS and
// %AppData% on Windows.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultConfigPath returns the config.cue location inside ConfigDir.
func DefaultConfigPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions resolves the config file, layers it over defaults and
// DOCKERINO_* environment overrides, and validates the result. The returned
// path is empty when no file was found.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'dockerino config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check DOCKERINO_* environment variables for invalid values").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a viper instance seeded with defaults and bound to the
// DOCKERINO_ environment prefix. Every key needs a default for AutomaticEnv
// to be consulted during Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("socket_path", string(defaults.SocketPath))
	v.SetDefault("api_version", string(defaults.APIVersion))
	v.SetDefault("max_idle_conns_per_host", defaults.MaxIdleConnsPerHost)
	v.SetDefault("log_level", string(defaults.LogLevel))
	v.SetDefault("output", string(defaults.Output))
	v.SetDefault("build.compression_level", defaults.Build.CompressionLevel)
	v.SetDefault("registry.server_address", defaults.Registry.ServerAddress)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// resolveConfigPath picks the file to load: the explicit path (which must
// exist), then the config directory, then ./config.cue.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'dockerino config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}

	candidates := []string{
		filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
		ConfigFileName + "." + ConfigFileExt,
	}
	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE file, validates it against #Config and merges
// the decoded map into v. Concrete(false) is used because every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkFileSize(data, maxConfigFileSize, path); err != nil {
		return err
	}

	cctx := cuecontext.New()

	schemaValue := cctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := cctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to path, or to
// DefaultConfigPath when path is empty. An existing file is left untouched
// and reported with created == false.
func CreateDefaultConfig(path string) (string, bool, error) {
	cfgPath, err := targetPath(path)
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := writeCUE(cfgPath, DefaultConfig()); err != nil {
		return "", false, err
	}
	return cfgPath, true, nil
}

// Save writes cfg to path (DefaultConfigPath when empty) after validating it.
func Save(cfg *Config, path string) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	cfgPath, err := targetPath(path)
	if err != nil {
		return "", err
	}

	if err := writeCUE(cfgPath, cfg); err != nil {
		return "", err
	}
	return cfgPath, nil
}

func targetPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultConfigPath()
}

func writeCUE(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Dockerino Configuration File\n")
	sb.WriteString("// Values may be overridden with DOCKERINO_* environment variables.\n\n")

	fmt.Fprintf(&sb, "socket_path: %q\n", cfg.SocketPath)
	fmt.Fprintf(&sb, "api_version: %q\n", cfg.APIVersion)
	fmt.Fprintf(&sb, "max_idle_conns_per_host: %d\n", cfg.MaxIdleConnsPerHost)
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)
	fmt.Fprintf(&sb, "output: %q\n", cfg.Output)

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tcompression_level: %d\n", cfg.Build.CompressionLevel)
	sb.WriteString("}\n")

	sb.WriteString("\nregistry: {\n")
	fmt.Fprintf(&sb, "\tserver_address: %q\n", cfg.Registry.ServerAddress)
	sb.WriteString("}\n")

	return sb.String()
}
