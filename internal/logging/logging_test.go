package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesJSONLinesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentineld.log")
	logger, closer, err := New(Options{Level: "info", FilePath: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("tick complete", "collector", "cpu")
	if err := closer(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty log file")
	}
}

func TestNewDefaultsToStdoutWhenNoFilePath(t *testing.T) {
	logger, closer, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if err := closer(); err != nil {
		t.Fatalf("stdout closer should be a no-op, got error: %v", err)
	}
}

func TestRotatingWriterRotatesPastSizeCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w, err := newRotatingWriter(path, 0) // rotateMB<=0 defaults, but we override rotateBytes directly below
	if err != nil {
		t.Fatal(err)
	}
	w.rotateBytes = 10 // force rotation on the very first write over 10 bytes

	if _, err := w.Write([]byte("0123456789")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("more-than-ten-bytes-of-payload")); err != nil {
		t.Fatal(err)
	}
	w.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected rotation to produce an extra file, got %d entries: %v", len(entries), entries)
	}
}

func TestNewRotatingWriterDefaultsRotateMB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := newRotatingWriter(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if w.rotateBytes != defaultRotateMB*1024*1024 {
		t.Errorf("rotateBytes = %d, want default of %d MB", w.rotateBytes, defaultRotateMB)
	}
}
