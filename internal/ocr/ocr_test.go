package ocr

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFakeTesseract(t *testing.T, output string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tesseract.sh")
	script := "#!/bin/sh\nprintf '%s' \"" + output + "\"\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractTextASCIIOnly(t *testing.T) {
	bin := writeFakeTesseract(t, `Convert vidéo — ready ✓`)
	ext := NewTesseract(bin, time.Second, discard())

	got := ext.ExtractText(context.Background(), writeImage(t))
	for _, r := range got {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune %q in output %q", r, got)
		}
	}
	if !strings.Contains(got, "Convert") || !strings.Contains(got, "ready") {
		t.Errorf("output lost readable text: %q", got)
	}
}

func TestExtractTextMissingImage(t *testing.T) {
	ext := NewTesseract("tesseract", time.Second, discard())
	got := ext.ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	if got != "Image file not found" {
		t.Errorf("got %q", got)
	}
}

func TestExtractTextBinaryFailure(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "broken.sh")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	ext := NewTesseract(bin, time.Second, discard())

	got := ext.ExtractText(context.Background(), writeImage(t))
	if !strings.HasPrefix(got, "OCR Error:") {
		t.Errorf("got %q, want diagnostic string", got)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  café £5 → done  ")
	for _, r := range got {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune in %q", got)
		}
	}
	// NFKD keeps the base letter of accented characters.
	if !strings.Contains(got, "cafe") {
		t.Errorf("got %q, want decomposed base letters kept", got)
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize("a☃b   c\n\nd")
	if got != "a b c d" {
		t.Errorf("got %q", got)
	}
	if Sanitize("") != "" {
		t.Error("empty input")
	}
}
