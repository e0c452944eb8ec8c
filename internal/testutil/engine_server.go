// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// NewEngineServer serves handler on a fresh Unix socket and returns the
// socket path. The server and socket directory are removed when the test ends.
//
// The socket lives under os.TempDir rather than t.TempDir because sun_path is
// limited to roughly 100 bytes and test names make t.TempDir paths long.
func NewEngineServer(t testing.TB, handler http.Handler) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "engine-")
	if err != nil {
		t.Fatalf("failed to create socket directory: %v", err)
	}
	t.Cleanup(func() { MustRemoveAll(t, dir) })

	socketPath := filepath.Join(dir, "engine.sock")
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("failed to listen on %s: %v", socketPath, err)
	}

	srv := httptest.NewUnstartedServer(handler)
	// httptest binds a TCP listener up front; swap it for the socket.
	if err := srv.Listener.Close(); err != nil {
		t.Logf("warning: close default listener: %v", err)
	}
	srv.Listener = ln
	srv.Start()
	t.Cleanup(srv.Close)

	return socketPath
}

// UnusedSocketPath returns a socket path nothing is listening on.
func UnusedSocketPath(t testing.TB) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "engine-")
	if err != nil {
		t.Fatalf("failed to create socket directory: %v", err)
	}
	t.Cleanup(func() { MustRemoveAll(t, dir) })

	return filepath.Join(dir, "missing.sock")
}
