package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// runHandler formats records as "timestamp - name - LEVEL - message k=v ...",
// the line shape the log artifacts are expected to carry.
type runHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	name  string
	level slog.Level
	attrs []slog.Attr
}

func newRunHandler(out io.Writer, name string, level slog.Level) *runHandler {
	return &runHandler{mu: &sync.Mutex{}, out: out, name: name, level: level}
}

func (h *runHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *runHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format("2006-01-02 15:04:05,000"))
	b.WriteString(" - ")
	b.WriteString(h.name)
	b.WriteString(" - ")
	b.WriteString(levelName(r.Level))
	b.WriteString(" - ")
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *runHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *runHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; the log artifact format is line-oriented.
	return h
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	b.WriteByte(' ')
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(fmt.Sprint(a.Value.Any()))
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// SanitizeURL makes a URL safe for use inside a file name.
func SanitizeURL(u string) string {
	r := strings.NewReplacer(":", "_", "/", "_", "?", "_", "=", "_", "&", "_")
	return r.Replace(u)
}

// NewRunLogger creates a logger scoped to a single test run, writing
// "<test_name>_<sanitized_url>_<timestamp>.log" under logsDir. Records are
// additionally mirrored to mirror when it is non-nil. It returns the logger,
// the log file path, and a close func.
func NewRunLogger(logsDir, testName, youtubeURL string, level slog.Level, mirror io.Writer) (*slog.Logger, string, func() error, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, "", nil, fmt.Errorf("creating logs dir: %w", err)
	}

	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s", testName, ts)
	path := filepath.Join(logsDir, fmt.Sprintf("%s_%s_%s.log", testName, SanitizeURL(youtubeURL), ts))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", nil, fmt.Errorf("creating log file: %w", err)
	}

	out := io.Writer(f)
	if mirror != nil {
		out = io.MultiWriter(f, mirror)
	}
	return slog.New(newRunHandler(out, name, level)), path, f.Close, nil
}

// NewWriterLogger builds a run-format logger over an arbitrary writer. Used
// by components that want the run line format without file management.
func NewWriterLogger(out io.Writer, name string, level slog.Level) *slog.Logger {
	return slog.New(newRunHandler(out, name, level))
}
