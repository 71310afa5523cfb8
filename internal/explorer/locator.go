package explorer

import (
	"fmt"
	"net"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var loopbackHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
	"0.0.0.0":   {},
}

// ResolveLocator parses a file's remote URL. When hostOverride is set,
// loopback hosts are rewritten to it so sandboxed environments (such as a
// device emulator) can reach the service; the port is kept.
func ResolveLocator(raw, hostOverride string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid locator %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid locator %q: not an absolute URL", raw)
	}
	if hostOverride == "" {
		return u.String(), nil
	}
	if _, ok := loopbackHosts[strings.ToLower(u.Hostname())]; !ok {
		return u.String(), nil
	}
	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(hostOverride, port)
	} else {
		u.Host = hostOverride
	}
	return u.String(), nil
}

// DownloadName returns the local name for a download: file_<unix millis>
// plus the original extension, taken from the locator path or else the
// file name.
func DownloadName(locator, fileName string, now time.Time) string {
	ext := ""
	if u, err := url.Parse(locator); err == nil {
		ext = path.Ext(u.Path)
	}
	if ext == "" || ext == "." {
		ext = filepath.Ext(fileName)
	}
	if ext == "." {
		ext = ""
	}
	return fmt.Sprintf("file_%d%s", now.UnixMilli(), ext)
}
