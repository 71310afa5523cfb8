package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestBrowserOpenerCanOpen(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"http://host/a.pdf", true},
		{"https://host/a.pdf", true},
		{"file:///tmp/a.pdf", true},
		{"ftp://host/a.pdf", false},
		{"mailto:a@b.c", false},
		{"::not a url", false},
	}
	var o BrowserOpener
	for _, tt := range tests {
		if got := o.CanOpen(tt.url); got != tt.expected {
			t.Errorf("CanOpen(%q) = %v, want %v", tt.url, got, tt.expected)
		}
	}
	if err := o.Open("ftp://host/a.pdf"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Open(ftp) = %v, want ErrUnsupported", err)
	}
}

func TestDirPermission(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	if err := (DirPermission{}).Request(dir); err != nil {
		t.Fatalf("Request() failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}
}

func TestDirPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(dir, 0o555); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	if err := (DirPermission{}).Request(dir); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Request() = %v, want ErrPermissionDenied", err)
	}
}
