package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Extractor converts a captured image into normalized ASCII text. It never
// fails: unreadable input yields a diagnostic string so the classification
// pipeline always has something to inspect.
type Extractor interface {
	ExtractText(ctx context.Context, imagePath string) string
}

// Tesseract shells out to the tesseract binary.
type Tesseract struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewTesseract(binary string, timeout time.Duration, logger *slog.Logger) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Tesseract{binary: binary, timeout: timeout, logger: logger}
}

func (t *Tesseract) ExtractText(ctx context.Context, imagePath string) string {
	if _, err := os.Stat(imagePath); err != nil {
		t.logger.Error("image file not found", "path", imagePath)
		return "Image file not found"
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, imagePath, "stdout")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.logger.Error("ocr extraction failed", "path", imagePath, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return fmt.Sprintf("OCR Error: %v", err)
	}

	return Normalize(stdout.String())
}

// Normalize applies NFKD normalization and strips everything outside the
// ASCII range, so downstream classification never sees multi-byte glyphs
// misread by OCR.
func Normalize(text string) string {
	decomposed := norm.NFKD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

var (
	nonASCII   = regexp.MustCompile(`[^\x00-\x7F]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Sanitize replaces non-ASCII runs with a single space and collapses
// whitespace. Used when text is embedded into single-line contexts.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	cleaned := nonASCII.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
}
