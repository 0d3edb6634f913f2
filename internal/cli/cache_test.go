package cli

import (
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	if got, err := cacheDir("/tmp/views"); err != nil || got != "/tmp/views" {
		t.Errorf("cacheDir(explicit) = %q, %v", got, err)
	}

	t.Setenv("XDG_CACHE_HOME", "/var/cache/me")
	t.Setenv("HOME", "/home/me")
	got, err := cacheDir("")
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if filepath.Base(got) != appName {
		t.Errorf("cacheDir() = %q, want a %q directory", got, appName)
	}
}
