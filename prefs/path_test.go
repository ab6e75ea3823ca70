package prefs_test

import (
	"os"
	"strings"
	"testing"

	"github.com/scanlime-collective/roboodyssey/prefs"
)

func TestJoinPathNestsUnderConfigDirAndCreatesIt(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := prefs.JoinPath("foo", "bar")
	if err != nil {
		t.Fatalf("JoinPath: %v", err)
	}
	if !strings.HasSuffix(got, "/roboodyssey/foo/bar") {
		t.Fatalf("JoinPath(%q, %q) = %q, want a path ending in /roboodyssey/foo/bar", "foo", "bar", got)
	}

	dir := strings.TrimSuffix(got, "/bar")
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected JoinPath to create %q as a directory", dir)
	}
}

func TestJoinPathSkipsEmptySegments(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := prefs.JoinPath("", "baz")
	if err != nil {
		t.Fatalf("JoinPath: %v", err)
	}
	if !strings.HasSuffix(got, "/roboodyssey/baz") {
		t.Fatalf("JoinPath(%q, %q) = %q, want a path ending in /roboodyssey/baz", "", "baz", got)
	}
}
