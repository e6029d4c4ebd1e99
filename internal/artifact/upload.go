package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Provider pushes run artifacts to remote storage.
type Provider interface {
	Name() string
	Configure(settings map[string]any) error
	Upload(ctx context.Context, r io.Reader, remotePath string) error
}

// ProviderFactory creates a fresh provider instance.
type ProviderFactory func() Provider

var providers = make(map[string]ProviderFactory)

// RegisterProvider makes a provider available by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider instantiates a registered provider.
func NewProvider(name string) (Provider, error) {
	factory, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown upload provider: %s", name)
	}
	return factory(), nil
}

// UploadFiles pushes each local file under remotePrefix, keeping the base
// name. Missing or unreadable files are skipped with an error entry so one
// lost artifact does not block the rest.
func UploadFiles(ctx context.Context, p Provider, remotePrefix string, paths []string) []error {
	var errs []error
	for _, path := range paths {
		if path == "" {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("opening %s: %w", path, err))
			continue
		}
		remote := filepath.Join(remotePrefix, filepath.Base(path))
		err = p.Upload(ctx, f, remote)
		f.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("uploading %s: %w", path, err))
		}
	}
	return errs
}
