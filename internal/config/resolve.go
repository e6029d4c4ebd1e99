package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPaths returns the search order for config files.
func DefaultConfigPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vconvtest", "config.yaml"))
	}
	paths = append(paths, "/etc/vconvtest/config.yaml")
	return paths
}

// Resolve loads the config from the given explicit path, or searches the
// default locations. It fills in Hostname from os.Hostname() if empty and
// applies directory defaults relative to the working directory.
func Resolve(explicit string) (*Config, error) {
	path, err := findConfig(explicit)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolving hostname: %w", err)
		}
		cfg.Hostname = h
	}

	applyDirDefaults(cfg)
	return cfg, nil
}

func applyDirDefaults(cfg *Config) {
	if cfg.Dirs.Screenshots == "" {
		cfg.Dirs.Screenshots = "screenshots"
	}
	if cfg.Dirs.Videos == "" {
		cfg.Dirs.Videos = "videos"
	}
	if cfg.Dirs.Logs == "" {
		cfg.Dirs.Logs = "logs"
	}
}

func findConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched %v)", DefaultConfigPaths())
}
