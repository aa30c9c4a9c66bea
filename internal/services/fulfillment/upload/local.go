package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/domain"
)

// LocalUploader copies archives into a directory on the local filesystem. It
// stands in for Drive during development and in deployments without remote
// storage.
type LocalUploader struct {
	dir string
}

// NewLocalUploader returns an uploader that stores archives under dir.
func NewLocalUploader(dir string) *LocalUploader {
	return &LocalUploader{dir: dir}
}

// Upload writes the archive under the configured directory. The returned
// remote id is the file name and the link is a file:// URL.
func (u *LocalUploader) Upload(ctx context.Context, name string, body io.Reader) (domain.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadResult{}, err
	}
	if u == nil || strings.TrimSpace(u.dir) == "" {
		return domain.UploadResult{}, fmt.Errorf("local upload directory is not configured")
	}
	if strings.TrimSpace(name) == "" {
		return domain.UploadResult{}, fmt.Errorf("archive name is required")
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return domain.UploadResult{}, fmt.Errorf("create upload directory: %w", err)
	}

	path := filepath.Join(u.dir, filepath.Base(name))
	out, err := os.Create(path)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("create archive copy: %w", err)
	}
	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return domain.UploadResult{}, fmt.Errorf("write archive copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return domain.UploadResult{}, fmt.Errorf("close archive copy: %w", err)
	}
	return domain.UploadResult{RemoteID: filepath.Base(name), Link: "file://" + path}, nil
}
