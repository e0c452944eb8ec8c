// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dockerino/dockerino/internal/issue"
	"github.com/dockerino/dockerino/internal/testutil"
)

func load(t *testing.T, opts LoadOptions) (*Loaded, error) {
	t.Helper()
	return NewProvider().Load(t.Context(), opts)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	loaded, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Path != "" {
		t.Errorf("Path = %q, want empty", loaded.Path)
	}
	if diff := cmp.Diff(DefaultConfig(), loaded.Config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileInConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.cue")
	testutil.MustWriteFile(t, path, []byte(`
socket_path: "/run/user/1000/docker.sock"
api_version: "v1.45"
max_idle_conns_per_host: 4
output: "json"
build: compression_level: 1
`))

	loaded, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Path != path {
		t.Errorf("Path = %q, want %q", loaded.Path, path)
	}

	want := DefaultConfig()
	want.SocketPath = "/run/user/1000/docker.sock"
	want.APIVersion = "v1.45"
	want.MaxIdleConnsPerHost = 4
	want.Output = OutputJSON
	want.Build.CompressionLevel = 1
	if diff := cmp.Diff(want, loaded.Config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, err := load(t, LoadOptions{ConfigFilePath: missing})
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error %T is not *issue.ActionableError", err)
	}
	if ae.Resource != missing {
		t.Errorf("Resource = %q, want %q", ae.Resource, missing)
	}
	if !ae.HasSuggestions() {
		t.Error("expected suggestions")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{name: "unknown output", content: `output: "xml"`, wantSub: "output"},
		{name: "relative socket", content: `socket_path: "docker.sock"`, wantSub: "socket_path"},
		{name: "bad api version", content: `api_version: "1.45"`, wantSub: "api_version"},
		{name: "negative pool", content: `max_idle_conns_per_host: -1`, wantSub: "max_idle_conns_per_host"},
		{name: "compression out of range", content: `build: compression_level: 12`, wantSub: "build.compression_level"},
		{name: "unknown field", content: `colour: "red"`, wantSub: "colour"},
		{name: "syntax error", content: `output: "json`, wantSub: "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.cue")
			testutil.MustWriteFile(t, path, []byte(tt.content))

			_, err := load(t, LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")
	data := "// " + strings.Repeat("x", maxConfigFileSize) + "\n"
	testutil.MustWriteFile(t, path, []byte(data))

	_, err := load(t, LoadOptions{ConfigFilePath: path})
	if !errors.Is(err, ErrConfigTooLarge) {
		t.Fatalf("Load() error = %v, want ErrConfigTooLarge", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DOCKERINO_OUTPUT", "yaml")
	t.Setenv("DOCKERINO_BUILD_COMPRESSION_LEVEL", "3")
	t.Setenv("DOCKERINO_MAX_IDLE_CONNS_PER_HOST", "2")

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), []byte(`output: "json"`))

	loaded, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg := loaded.Config
	if cfg.Output != OutputYAML {
		t.Errorf("Output = %q, want env override %q", cfg.Output, OutputYAML)
	}
	if cfg.Build.CompressionLevel != 3 {
		t.Errorf("CompressionLevel = %d, want 3", cfg.Build.CompressionLevel)
	}
	if cfg.MaxIdleConnsPerHost != 2 {
		t.Errorf("MaxIdleConnsPerHost = %d, want 2", cfg.MaxIdleConnsPerHost)
	}
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	t.Setenv("DOCKERINO_LOG_LEVEL", "loud")

	_, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Fatalf("Load() error = %v, want ErrInvalidLogLevel", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error should also match ErrInvalidConfig")
	}
}

func TestDefaultSocketPath_DockerHost(t *testing.T) {
	tests := []struct {
		name       string
		dockerHost string
		want       SocketPath
	}{
		{name: "unset", dockerHost: "", want: "/var/run/docker.sock"},
		{name: "unix scheme", dockerHost: "unix:///run/podman/podman.sock", want: "/run/podman/podman.sock"},
		{name: "tcp scheme ignored", dockerHost: "tcp://127.0.0.1:2375", want: "/var/run/docker.sock"},
		{name: "empty unix path", dockerHost: "unix://", want: "/var/run/docker.sock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.dockerHost == "" {
				t.Cleanup(testutil.MustUnsetenv(t, DockerHostEnv))
			} else {
				t.Setenv(DockerHostEnv, tt.dockerHost)
			}
			if got := DefaultSocketPath(); got != tt.want {
				t.Errorf("DefaultSocketPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SocketPath = "/tmp/engine.sock"
	cfg.APIVersion = "v1.44"
	cfg.LogLevel = LogLevelDebug
	cfg.Output = OutputTOML
	cfg.Registry.ServerAddress = "registry.example.com"

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	written, err := Save(cfg, path)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if written != path {
		t.Errorf("Save() path = %q, want %q", written, path)
	}

	loaded, err := load(t, LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded.Config); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Output = "xml"

	path := filepath.Join(t.TempDir(), "config.cue")
	if _, err := Save(cfg, path); !errors.Is(err, ErrInvalidOutputFormat) {
		t.Fatalf("Save() error = %v, want ErrInvalidOutputFormat", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("invalid config should not be written, stat err = %v", err)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")

	got, created, err := CreateDefaultConfig(path)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if !created || got != path {
		t.Fatalf("CreateDefaultConfig() = (%q, %v), want (%q, true)", got, created, path)
	}

	testutil.MustWriteFile(t, path, []byte(`output: "json"`))

	_, created, err = CreateDefaultConfig(path)
	if err != nil {
		t.Fatalf("second CreateDefaultConfig() error = %v", err)
	}
	if created {
		t.Error("existing file must not be overwritten")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `output: "json"` {
		t.Errorf("file content changed to %q", data)
	}
}

func TestConfigDir_UsesUserConfigHome(t *testing.T) {
	base := testutil.SetConfigHome(t, t.TempDir())

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join(base, AppName); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	if want := filepath.Join(base, AppName, "config.cue"); path != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", path, want)
	}
}

func TestGenerateCUE_IsValidAgainstSchema(t *testing.T) {
	t.Parallel()

	out := GenerateCUE(DefaultConfig())
	for _, key := range []string{"socket_path:", "api_version:", "log_level:", "compression_level:", "server_address:"} {
		if !strings.Contains(out, key) {
			t.Errorf("GenerateCUE() missing %q", key)
		}
	}

	path := filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, path, []byte(out))
	if _, err := load(t, LoadOptions{ConfigFilePath: path}); err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
}
