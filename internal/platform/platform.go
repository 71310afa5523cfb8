// Package platform wraps the host capabilities the explorer hands work to:
// opening URLs externally, storage permission and the clipboard.
package platform

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

var (
	// ErrUnsupported means the platform cannot perform the action.
	ErrUnsupported = errors.New("unsupported by this platform")
	// ErrPermissionDenied means the platform refused a capability.
	ErrPermissionDenied = errors.New("permission denied")
)

// Opener hands URLs to an external application.
type Opener interface {
	CanOpen(rawURL string) bool
	Open(rawURL string) error
}

// BrowserOpener opens http(s) and file URLs with the system browser.
type BrowserOpener struct{}

// CanOpen reports whether the URL has a scheme the browser handles.
func (BrowserOpener) CanOpen(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "file":
		return true
	default:
		return false
	}
}

// Open launches the browser.
func (o BrowserOpener) Open(rawURL string) error {
	if !o.CanOpen(rawURL) {
		return ErrUnsupported
	}
	return browser.OpenURL(rawURL)
}

// StoragePermission guards writes into device storage.
type StoragePermission interface {
	Request(dir string) error
}

// DirPermission grants storage access when dir exists (or can be created)
// and accepts writes.
type DirPermission struct{}

// Request probes dir, returning ErrPermissionDenied when it is not writable.
func (DirPermission) Request(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	probe, err := os.CreateTemp(dir, ".docexplorer-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	name := probe.Name()
	probe.Close()
	_ = os.Remove(name)
	return nil
}

// Clipboard copies text for the user.
type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard uses the OS clipboard.
type SystemClipboard struct{}

// Copy writes text to the clipboard.
func (SystemClipboard) Copy(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// DefaultDownloadDir returns ~/Downloads, or the working directory when the
// home directory is unknown.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
