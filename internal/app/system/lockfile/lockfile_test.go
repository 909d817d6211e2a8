package lockfile

import (
	"path/filepath"
	"testing"
)

func TestNewPath(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, "fsrc", "groupsync", "race 1234")
	want := filepath.Join(dir, "fsrc-groupsync-race_1234.lock")
	if l.Path() != want {
		t.Errorf("Path = %q, want %q", l.Path(), want)
	}
}

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "nested"), "fsrc", "sync")

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// reacquire after release
	if err := l.Acquire(); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}
