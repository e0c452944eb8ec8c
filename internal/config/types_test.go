// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"github.com/charmbracelet/log"
)

func TestAPIVersion_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value APIVersion
		want  bool
	}{
		{"", true},
		{"v1.45", true},
		{"v1.24", true},
		{"v2.0", true},
		{"1.45", false},
		{"v1", false},
		{"v1.45.0", false},
		{"v1.45-rc1", false},
		{"latest", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()

			valid, errs := tt.value.IsValid()
			if valid != tt.want {
				t.Fatalf("IsValid(%q) = %v, want %v", tt.value, valid, tt.want)
			}
			if !valid && !errors.Is(errs[0], ErrInvalidAPIVersion) {
				t.Errorf("error %v does not wrap ErrInvalidAPIVersion", errs[0])
			}
		})
	}
}

func TestSocketPath_IsValid(t *testing.T) {
	t.Parallel()

	if valid, _ := SocketPath("/var/run/docker.sock").IsValid(); !valid {
		t.Error("absolute path should be valid")
	}
	for _, p := range []SocketPath{"", "  ", "docker.sock"} {
		valid, errs := p.IsValid()
		if valid {
			t.Errorf("IsValid(%q) = true, want false", p)
			continue
		}
		var spErr *InvalidSocketPathError
		if !errors.As(errs[0], &spErr) || spErr.Value != p {
			t.Errorf("IsValid(%q) error = %v", p, errs[0])
		}
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level     LogLevel
		wantValid bool
		wantLevel log.Level
	}{
		{LogLevelDebug, true, log.DebugLevel},
		{LogLevelInfo, true, log.InfoLevel},
		{LogLevelWarn, true, log.WarnLevel},
		{LogLevelError, true, log.ErrorLevel},
		{"trace", false, log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()

			if valid, _ := tt.level.IsValid(); valid != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v", valid, tt.wantValid)
			}
			if got := tt.level.Level(); got != tt.wantLevel {
				t.Errorf("Level() = %v, want %v", got, tt.wantLevel)
			}
		})
	}
}

func TestOutputFormat_IsValid(t *testing.T) {
	t.Parallel()

	for _, f := range []OutputFormat{OutputTable, OutputJSON, OutputYAML, OutputTOML} {
		if valid, errs := f.IsValid(); !valid {
			t.Errorf("IsValid(%q) = false: %v", f, errs)
		}
	}

	_, errs := OutputFormat("xml").IsValid()
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidOutputFormat) {
		t.Errorf("IsValid(xml) errors = %v", errs)
	}
}

func TestConfig_IsValidCollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SocketPath = "relative.sock"
	cfg.APIVersion = "latest"
	cfg.MaxIdleConnsPerHost = -1
	cfg.Build.CompressionLevel = 10

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("IsValid() = true, want false")
	}

	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("error %T is not *InvalidConfigError", errs[0])
	}
	if len(cfgErr.FieldErrors) != 4 {
		t.Errorf("FieldErrors = %d, want 4: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	for _, sentinel := range []error{ErrInvalidConfig, ErrInvalidSocketPath, ErrInvalidAPIVersion, ErrInvalidPoolSize, ErrInvalidBuildConfig} {
		if !errors.Is(cfg.Validate(), sentinel) {
			t.Errorf("Validate() does not match %v", sentinel)
		}
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}
