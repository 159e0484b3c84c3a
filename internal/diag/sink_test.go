package diag

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

func TestSaveCompressesMarkup(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir, testLogger)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	markup := "<html><body>" + strings.Repeat("catalog ", 500) + "</body></html>"
	s.Save("No Listing Heading: Marketing!", markup, []byte{0x89, 0x50})

	htmlPath := filepath.Join(dir, "html", "no-listing-heading-marketing.html.br")
	f, err := os.Open(htmlPath)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()

	decoded, err := io.ReadAll(brotli.NewReader(f))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(decoded) != markup {
		t.Error("round-tripped markup differs")
	}

	shotPath := filepath.Join(dir, "screenshots", "no-listing-heading-marketing.png")
	if _, err := os.Stat(shotPath); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}
}

func TestOnSaveFiresPerArtifact(t *testing.T) {
	s, err := NewSink(t.TempDir(), testLogger)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	var saved int
	s.OnSave(func() { saved++ })
	s.Save("label", "<html></html>", []byte{1})

	if saved != 2 {
		t.Errorf("callback fired %d times, want 2 (markup and screenshot)", saved)
	}
}

func TestNilSinkIsSafe(t *testing.T) {
	var s *Sink
	s.Save("label", "<html></html>", nil)
	s.OnSave(func() {})
	s.Capture(nil, "label")
}
