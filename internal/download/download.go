// Package download fetches remote files into local storage and keeps a
// ledger of what was saved.
package download

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"docexplorer/internal/metrics"
)

// Request describes one download.
type Request struct {
	DocumentID string
	URL        string
	Name       string // local file name, no directories
}

// Progress reports bytes written so far. Total is -1 when unknown.
type Progress struct {
	Name    string
	Written int64
	Total   int64
}

// Percent returns progress in [0,1], or 0 when the total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Written) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Result describes a finished download.
type Result struct {
	Path   string
	Size   int64
	SHA256 string
}

// Config holds manager configuration.
type Config struct {
	Dir        string
	HTTPClient *http.Client
	Ledger     *Ledger // optional
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	// Now is the clock used for ledger timestamps.
	Now func() time.Time
}

// Manager runs downloads.
type Manager struct {
	cfg Config
}

// New creates a manager.
func New(cfg Config) *Manager {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{cfg: cfg}
}

// Dir returns the target directory.
func (m *Manager) Dir() string {
	return m.cfg.Dir
}

// Fetch streams req.URL into Dir/req.Name. The file appears under its final
// name only once fully written. progress may be nil.
func (m *Manager) Fetch(ctx context.Context, req Request, progress func(Progress)) (Result, error) {
	res, err := m.fetch(ctx, req, progress)
	m.cfg.Metrics.RecordDownload(err == nil, res.Size)
	if err != nil {
		m.cfg.Logger.Warn("download failed", zap.String("url", req.URL), zap.Error(err))
		return Result{}, err
	}
	m.cfg.Logger.Info("download completed",
		zap.String("path", res.Path),
		zap.Int64("size", res.Size),
		zap.String("sha256", res.SHA256),
	)
	return res, nil
}

func (m *Manager) fetch(ctx context.Context, req Request, progress func(Progress)) (Result, error) {
	if req.Name == "" || req.Name != filepath.Base(req.Name) {
		return Result{}, fmt.Errorf("invalid download name %q", req.Name)
	}
	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := m.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(m.cfg.Dir, ".download-*")
	if err != nil {
		return Result{}, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h := sha256.New()
	pw := &progressWriter{name: req.Name, total: resp.ContentLength, fn: progress}
	n, err := io.Copy(io.MultiWriter(tmp, h, pw), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Result{}, err
	}

	final := filepath.Join(m.cfg.Dir, req.Name)
	if _, err := os.Stat(final); err == nil {
		return Result{}, fmt.Errorf("%s already exists", final)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Result{}, err
	}
	if err := os.Rename(tmpName, final); err != nil {
		return Result{}, err
	}

	res := Result{Path: final, Size: n, SHA256: fmt.Sprintf("%x", h.Sum(nil))}
	if m.cfg.Ledger != nil {
		rec := Record{
			DocumentID: req.DocumentID,
			Name:       req.Name,
			URL:        req.URL,
			Path:       final,
			Size:       n,
			MIME:       resp.Header.Get("Content-Type"),
			SHA256:     res.SHA256,
			Completed:  m.cfg.Now(),
		}
		if err := m.cfg.Ledger.Add(rec); err != nil {
			// The file is on disk; a missing history row is not worth failing for.
			m.cfg.Logger.Warn("ledger insert failed", zap.Error(err))
		}
	}
	return res, nil
}

// History returns the most recent downloads, or nil without a ledger.
func (m *Manager) History(limit int) ([]Record, error) {
	if m.cfg.Ledger == nil {
		return nil, nil
	}
	return m.cfg.Ledger.Recent(limit)
}

type progressWriter struct {
	name    string
	total   int64
	written int64
	fn      func(Progress)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.fn != nil {
		p.fn(Progress{Name: p.name, Written: p.written, Total: p.total})
	}
	return len(b), nil
}
