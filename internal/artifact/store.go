// Package artifact manages the files a run leaves behind: screenshots,
// session recordings, and run logs. It owns their naming scheme and the
// wait-for-flush handling for files written asynchronously by the browser.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const timestampLayout = "20060102_150405"

// Dirs holds the per-kind artifact directories.
type Dirs struct {
	Screenshots string
	Videos      string
	Logs        string
}

// Store resolves artifact paths and verifies files the browser writes
// asynchronously.
type Store struct {
	dirs        Dirs
	waitTimeout time.Duration
	logger      *slog.Logger
}

func NewStore(dirs Dirs, logger *slog.Logger) *Store {
	return &Store{
		dirs:        dirs,
		waitTimeout: 5 * time.Second,
		logger:      logger,
	}
}

// EnsureDirs creates the artifact directories if missing.
func (s *Store) EnsureDirs() error {
	for _, dir := range []string{s.dirs.Screenshots, s.dirs.Videos, s.dirs.Logs} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating artifact dir %s: %w", dir, err)
		}
	}
	return nil
}

// ScreenshotPath builds the path for a checkpoint screenshot.
func (s *Store) ScreenshotPath(testName, stepName string, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.png", testName, stepName, at.Format(timestampLayout))
	return filepath.Join(s.dirs.Screenshots, name)
}

// VideoDir is the directory session recordings land in.
func (s *Store) VideoDir() string { return s.dirs.Videos }

// VideoPath builds the stable rename target for a session recording.
func (s *Store) VideoPath(testName string, at time.Time) string {
	name := fmt.Sprintf("%s_%s.webm", testName, at.Format(timestampLayout))
	return filepath.Join(s.dirs.Videos, name)
}

// LogsDir is the directory run logs are written to.
func (s *Store) LogsDir() string { return s.dirs.Logs }

// WaitForFile confirms path exists, tolerating the browser's asynchronous
// write. A first stat that misses arms a directory watch and waits up to the
// store's timeout for the file to appear. Returns the path, or "" when the
// file never materialized; a missing artifact is recorded, not fatal.
func (s *Store) WaitForFile(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("cannot watch for artifact flush", "path", path, "error", err)
		return s.restat(path)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		s.logger.Warn("cannot watch artifact directory", "path", path, "error", err)
		return s.restat(path)
	}

	deadline := time.After(s.waitTimeout)
	for {
		select {
		case ev := <-watcher.Events:
			if ev.Name == path && ev.Op.Has(fsnotify.Create|fsnotify.Write) {
				return path
			}
		case err := <-watcher.Errors:
			s.logger.Warn("artifact watch error", "path", path, "error", err)
			return s.restat(path)
		case <-deadline:
			return s.restat(path)
		}
	}
}

// restat is the last look after watching failed or timed out: the file may
// have landed between the first stat and the watch arming.
func (s *Store) restat(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	s.logger.Warn("artifact file missing", "path", path)
	return ""
}

// RenameVideo moves the driver's generated recording to its stable name.
func (s *Store) RenameVideo(generated, testName string, at time.Time) (string, error) {
	if generated == "" {
		return "", nil
	}
	target := s.VideoPath(testName, at)
	if err := os.Rename(generated, target); err != nil {
		return "", fmt.Errorf("renaming recording: %w", err)
	}
	return target, nil
}
