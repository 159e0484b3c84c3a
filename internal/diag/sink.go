// Package diag persists page markup and screenshots on soft failures so a
// broken selector can be debugged offline. Every operation is best-effort:
// a failed capture is logged and swallowed, never propagated.
package diag

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"

	"github.com/storescout/storescout/internal/driver"
	"github.com/storescout/storescout/internal/types"
)

// Sink writes diagnostic artifacts under a base directory:
// <dir>/html/<label>.html.br and <dir>/screenshots/<label>.png.
type Sink struct {
	dir    string
	logger *slog.Logger
	onSave func()
}

// OnSave registers a callback fired once per saved artifact, used to feed
// run metrics.
func (s *Sink) OnSave(fn func()) {
	if s == nil {
		return
	}
	s.onSave = fn
}

func (s *Sink) notify() {
	if s.onSave != nil {
		s.onSave()
	}
}

// NewSink creates the artifact directories up front.
func NewSink(dir string, logger *slog.Logger) (*Sink, error) {
	for _, sub := range []string{"html", "screenshots"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, &types.StorageError{Backend: "diag", Err: err}
		}
	}
	return &Sink{dir: dir, logger: logger.With("component", "diag_sink")}, nil
}

// Capture grabs the current page markup and a screenshot from the driver and
// saves both under the given label. Never returns an error.
func (s *Sink) Capture(d driver.PageDriver, label string) {
	if s == nil {
		return
	}
	slug := types.Slugify(label)

	if html, err := d.Content(); err == nil {
		s.saveHTML(slug, html)
	} else {
		s.logger.Debug("diagnostic markup capture failed", "label", slug, "error", err)
	}

	if shot, err := d.Screenshot(); err == nil {
		s.saveScreenshot(slug, shot)
	} else {
		s.logger.Debug("diagnostic screenshot failed", "label", slug, "error", err)
	}
}

// Save stores already-captured markup and screenshot bytes. Either argument
// may be empty/nil.
func (s *Sink) Save(label, markup string, screenshot []byte) {
	if s == nil {
		return
	}
	slug := types.Slugify(label)
	if markup != "" {
		s.saveHTML(slug, markup)
	}
	if len(screenshot) > 0 {
		s.saveScreenshot(slug, screenshot)
	}
}

// saveHTML brotli-compresses the dump; rendered storefront pages routinely
// exceed a megabyte of markup.
func (s *Sink) saveHTML(slug, html string) {
	path := filepath.Join(s.dir, "html", slug+".html.br")
	f, err := os.Create(path)
	if err != nil {
		s.logger.Debug("diagnostic html save failed", "path", path, "error", err)
		return
	}
	defer f.Close()

	w := brotli.NewWriterLevel(f, brotli.DefaultCompression)
	if _, err := w.Write([]byte(html)); err != nil {
		s.logger.Debug("diagnostic html write failed", "path", path, "error", err)
		return
	}
	if err := w.Close(); err != nil {
		s.logger.Debug("diagnostic html flush failed", "path", path, "error", err)
		return
	}
	s.notify()
	s.logger.Info("diagnostic saved", "path", path)
}

func (s *Sink) saveScreenshot(slug string, data []byte) {
	path := filepath.Join(s.dir, "screenshots", slug+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Debug("diagnostic screenshot save failed", "path", path, "error", err)
		return
	}
	s.notify()
	s.logger.Info("diagnostic saved", "path", path)
}
