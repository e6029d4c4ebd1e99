package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type memProvider struct {
	objects   map[string]string
	uploadErr error
}

func (m *memProvider) Name() string { return "mem" }

func (m *memProvider) Configure(settings map[string]any) error { return nil }

func (m *memProvider) Upload(_ context.Context, r io.Reader, remotePath string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = make(map[string]string)
	}
	m.objects[remotePath] = string(data)
	return nil
}

func TestProviderRegistry(t *testing.T) {
	RegisterProvider("mem", func() Provider { return &memProvider{} })

	p, err := NewProvider("mem")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "mem" {
		t.Errorf("name = %q", p.Name())
	}

	if _, err := NewProvider("no-such-provider"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestUploadFiles(t *testing.T) {
	dir := t.TempDir()
	shot := filepath.Join(dir, "run_final_state.png")
	if err := os.WriteFile(shot, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &memProvider{}
	errs := UploadFiles(context.Background(), p, "runs/20260824", []string{shot, "", filepath.Join(dir, "missing.webm")})

	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly the missing-file error", errs)
	}
	if got := p.objects["runs/20260824/run_final_state.png"]; got != "png" {
		t.Errorf("uploaded content = %q", got)
	}
}

func TestUploadFilesProviderFailure(t *testing.T) {
	dir := t.TempDir()
	shot := filepath.Join(dir, "a.png")
	if err := os.WriteFile(shot, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &memProvider{uploadErr: errors.New("bucket gone")}
	errs := UploadFiles(context.Background(), p, "runs", []string{shot})
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "bucket gone") {
		t.Errorf("errs = %v", errs)
	}
}

func TestMinioProviderRequiresSettings(t *testing.T) {
	p := &MinioProvider{}
	for _, tc := range []struct {
		settings map[string]any
		want     string
	}{
		{map[string]any{}, "endpoint is required"},
		{map[string]any{"endpoint": "localhost:9000"}, "access_key is required"},
		{map[string]any{"endpoint": "localhost:9000", "access_key": "k"}, "secret_key is required"},
		{map[string]any{"endpoint": "localhost:9000", "access_key": "k", "secret_key": "s"}, "bucket is required"},
		{map[string]any{"endpoint": "http://", "access_key": "k", "secret_key": "s", "bucket": "b"}, "invalid endpoint URL"},
	} {
		err := p.Configure(tc.settings)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("Configure(%v) = %v, want %q", tc.settings, err, tc.want)
		}
	}
}

func TestMinioProviderUnconfiguredUpload(t *testing.T) {
	p := &MinioProvider{}
	err := p.Upload(context.Background(), strings.NewReader("x"), "a.png")
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Errorf("err = %v", err)
	}
}
