// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"

	"github.com/dockerino/dockerino/internal/engineapi"
)

const (
	// OutputTable renders results as styled tables.
	OutputTable OutputFormat = "table"
	// OutputJSON renders results as indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML renders results as YAML.
	OutputYAML OutputFormat = "yaml"
	// OutputTOML renders results as TOML.
	OutputTOML OutputFormat = "toml"

	// LogLevelDebug enables per-call engine logging.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default log level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn only logs warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError only logs errors.
	LogLevelError LogLevel = "error"

	// DockerHostEnv is consulted for the default socket path.
	DockerHostEnv = "DOCKER_HOST"

	unixScheme = "unix://"
)

var (
	// ErrInvalidSocketPath is the sentinel wrapped by InvalidSocketPathError.
	ErrInvalidSocketPath = errors.New("invalid socket path")
	// ErrInvalidAPIVersion is the sentinel wrapped by InvalidAPIVersionError.
	ErrInvalidAPIVersion = errors.New("invalid API version")
	// ErrInvalidLogLevel is the sentinel wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidOutputFormat is the sentinel wrapped by InvalidOutputFormatError.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidPoolSize is returned when max_idle_conns_per_host is negative.
	ErrInvalidPoolSize = errors.New("invalid idle connection pool size")
	// ErrInvalidBuildConfig is the sentinel wrapped by InvalidBuildConfigError.
	ErrInvalidBuildConfig = errors.New("invalid build config")
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// SocketPath is the filesystem path of the engine's Unix socket.
	SocketPath string

	// InvalidSocketPathError is returned when a SocketPath is empty or relative.
	InvalidSocketPathError struct {
		Value SocketPath
	}

	// APIVersion is an engine API version prefix such as "v1.45". Empty means
	// unversioned paths.
	APIVersion string

	// InvalidAPIVersionError is returned when an APIVersion is not vMAJOR.MINOR.
	InvalidAPIVersionError struct {
		Value APIVersion
	}

	// LogLevel is the minimum level the CLI logger emits.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// OutputFormat selects how command results are rendered.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidBuildConfigError collects BuildConfig field errors.
	InvalidBuildConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects Config field errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// SocketPath is the engine socket to dial.
		SocketPath SocketPath `json:"socket_path" yaml:"socket_path" toml:"socket_path" mapstructure:"socket_path"`
		// APIVersion prefixes every request path when set.
		APIVersion APIVersion `json:"api_version" yaml:"api_version" toml:"api_version" mapstructure:"api_version"`
		// MaxIdleConnsPerHost sizes the idle connection pool; 0 disables reuse.
		MaxIdleConnsPerHost int `json:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host" toml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`
		// LogLevel is the CLI log level.
		LogLevel LogLevel `json:"log_level" yaml:"log_level" toml:"log_level" mapstructure:"log_level"`
		// Output is the default rendering for command results.
		Output OutputFormat `json:"output" yaml:"output" toml:"output" mapstructure:"output"`
		// Build configures image builds.
		Build BuildConfig `json:"build" yaml:"build" toml:"build" mapstructure:"build"`
		// Registry configures pushes.
		Registry RegistryConfig `json:"registry" yaml:"registry" toml:"registry" mapstructure:"registry"`
	}

	// BuildConfig configures image builds.
	BuildConfig struct {
		// CompressionLevel is the gzip level of the build context (-1 to 9).
		CompressionLevel int `json:"compression_level" yaml:"compression_level" toml:"compression_level" mapstructure:"compression_level"`
	}

	// RegistryConfig configures image pushes.
	RegistryConfig struct {
		// ServerAddress is the default registry for push authentication.
		ServerAddress string `json:"server_address" yaml:"server_address" toml:"server_address" mapstructure:"server_address"`
	}
)

// DefaultSocketPath returns the socket named by DOCKER_HOST when it uses the
// unix:// scheme, otherwise the conventional engine socket.
func DefaultSocketPath() SocketPath {
	if host, ok := strings.CutPrefix(os.Getenv(DockerHostEnv), unixScheme); ok && host != "" {
		return SocketPath(host)
	}
	return SocketPath(engineapi.DefaultSocketPath)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SocketPath:          DefaultSocketPath(),
		APIVersion:          "",
		MaxIdleConnsPerHost: 0,
		LogLevel:            LogLevelInfo,
		Output:              OutputTable,
		Build: BuildConfig{
			CompressionLevel: 9,
		},
		Registry: RegistryConfig{
			ServerAddress: "",
		},
	}
}

// String returns the path.
func (p SocketPath) String() string { return string(p) }

// IsValid reports whether p is a non-empty absolute path.
func (p SocketPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" || !filepath.IsAbs(string(p)) {
		return false, []error{&InvalidSocketPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSocketPathError.
func (e *InvalidSocketPathError) Error() string {
	return fmt.Sprintf("invalid socket path %q: must be an absolute path", e.Value)
}

// Unwrap returns ErrInvalidSocketPath for errors.Is() compatibility.
func (e *InvalidSocketPathError) Unwrap() error { return ErrInvalidSocketPath }

// String returns the version.
func (v APIVersion) String() string { return string(v) }

// IsValid reports whether v is empty or of the form vMAJOR.MINOR.
func (v APIVersion) IsValid() (bool, []error) {
	if v == "" {
		return true, nil
	}
	s := string(v)
	if !semver.IsValid(s) || semver.MajorMinor(s) != s {
		return false, []error{&InvalidAPIVersionError{Value: v}}
	}
	return true, nil
}

// Error implements the error interface for InvalidAPIVersionError.
func (e *InvalidAPIVersionError) Error() string {
	return fmt.Sprintf("invalid API version %q (expected vMAJOR.MINOR, e.g. v1.45)", e.Value)
}

// Unwrap returns ErrInvalidAPIVersion for errors.Is() compatibility.
func (e *InvalidAPIVersionError) Unwrap() error { return ErrInvalidAPIVersion }

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts l to a logger level. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the format name.
func (f OutputFormat) String() string { return string(f) }

// IsValid reports whether f is a known format.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case OutputTable, OutputJSON, OutputYAML, OutputTOML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface for InvalidOutputFormatError.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: table, json, yaml, toml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid reports whether the compression level is within gzip's range.
func (c BuildConfig) IsValid() (bool, []error) {
	if c.CompressionLevel < -1 || c.CompressionLevel > 9 {
		return false, []error{&InvalidBuildConfigError{FieldErrors: []error{
			fmt.Errorf("compression_level %d out of range [-1, 9]", c.CompressionLevel),
		}}}
	}
	return true, nil
}

// Error implements the error interface for InvalidBuildConfigError.
func (e *InvalidBuildConfigError) Error() string {
	return fmt.Sprintf("invalid build config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidBuildConfig for errors.Is() compatibility.
func (e *InvalidBuildConfigError) Unwrap() error { return ErrInvalidBuildConfig }

// IsValid returns whether the Config has valid fields, delegating to each
// field's own IsValid.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.SocketPath.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.APIVersion.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.MaxIdleConnsPerHost < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPoolSize, c.MaxIdleConnsPerHost))
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Output.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Build.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate returns nil when c is valid, otherwise an *InvalidConfigError.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap exposes ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
