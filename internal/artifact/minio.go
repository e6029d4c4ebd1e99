package artifact

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func init() {
	RegisterProvider("minio", func() Provider { return &MinioProvider{} })
}

// MinioProvider uploads artifacts to a MinIO or S3-compatible bucket.
type MinioProvider struct {
	client *minio.Client
	bucket string
	prefix string
}

func (m *MinioProvider) Name() string { return "minio" }

// Configure builds the client from the settings map and verifies the bucket
// exists. An endpoint carrying an http:// or https:// scheme overrides the
// secure flag.
func (m *MinioProvider) Configure(settings map[string]any) error {
	endpoint, ok := settingString(settings, "endpoint")
	if !ok {
		return fmt.Errorf("minio: endpoint is required")
	}
	accessKey, ok := settingString(settings, "access_key")
	if !ok {
		return fmt.Errorf("minio: access_key is required")
	}
	secretKey, ok := settingString(settings, "secret_key")
	if !ok {
		return fmt.Errorf("minio: secret_key is required")
	}
	bucket, ok := settingString(settings, "bucket")
	if !ok {
		return fmt.Errorf("minio: bucket is required")
	}

	secure := settingBool(settings, "secure", true)
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "http://"), false
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	}
	if endpoint == "" {
		return fmt.Errorf("minio: invalid endpoint URL")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
		Region: settingStringDefault(settings, "region", "us-east-1"),
	})
	if err != nil {
		return fmt.Errorf("minio: creating client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return fmt.Errorf("minio: checking bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio: bucket %s does not exist", bucket)
	}

	m.client = client
	m.bucket = bucket
	m.prefix = settingStringDefault(settings, "prefix", "")
	return nil
}

func (m *MinioProvider) Upload(ctx context.Context, r io.Reader, remotePath string) error {
	if m.client == nil {
		return fmt.Errorf("minio: provider not configured")
	}
	objectName := remotePath
	if m.prefix != "" {
		objectName = path.Join(m.prefix, remotePath)
	}
	if _, err := m.client.PutObject(ctx, m.bucket, objectName, r, -1, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("minio: uploading %s: %w", objectName, err)
	}
	return nil
}

func settingString(settings map[string]any, key string) (string, bool) {
	if v, ok := settings[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func settingStringDefault(settings map[string]any, key, def string) string {
	if v, ok := settingString(settings, key); ok {
		return v
	}
	return def
}

func settingBool(settings map[string]any, key string, def bool) bool {
	if v, ok := settings[key]; ok {
		switch b := v.(type) {
		case bool:
			return b
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed
			}
		}
	}
	return def
}
