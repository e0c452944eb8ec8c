// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// SetConfigHome points the user config directory at dir for the duration of
// the test and returns the directory os.UserConfigDir will now report.
// Cleanup is registered with t.
func SetConfigHome(t testing.TB, dir string) string {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		t.Cleanup(MustSetenv(t, "AppData", dir))
		return dir
	case "darwin":
		t.Cleanup(MustSetenv(t, "HOME", dir))
		return filepath.Join(dir, "Library", "Application Support")
	default:
		t.Cleanup(MustSetenv(t, "XDG_CONFIG_HOME", dir))
		return dir
	}
}
