package main

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// setupLogger builds the process-level logger. Interactive terminals get the
// compact text handler; pipes and service managers get JSON.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("VCONVTEST_DEBUG") != "" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
