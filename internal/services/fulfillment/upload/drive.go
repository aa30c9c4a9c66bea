// Package upload stores packaged order archives, either on Google Drive or
// on the local filesystem when no Drive credentials are configured.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kyoso-cards/fulfillment/internal/services/fulfillment/domain"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveUploader uploads archives to a Google Drive folder using a service
// account.
type DriveUploader struct {
	files    *drive.FilesService
	folderID string
}

// NewDriveUploader reads a service account JSON key from credentialsPath and
// builds a Drive client scoped to files the service account creates.
func NewDriveUploader(ctx context.Context, credentialsPath, folderID string) (*DriveUploader, error) {
	if strings.TrimSpace(credentialsPath) == "" {
		return nil, fmt.Errorf("drive credentials path is required")
	}

	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	config, err := google.JWTConfigFromJSON(data, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	service, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	return &DriveUploader{files: service.Files, folderID: folderID}, nil
}

// Upload creates the named file on Drive and returns its id and view link.
func (u *DriveUploader) Upload(ctx context.Context, name string, body io.Reader) (domain.UploadResult, error) {
	if u == nil || u.files == nil {
		return domain.UploadResult{}, fmt.Errorf("drive uploader is not configured")
	}

	file := &drive.File{Name: name}
	if u.folderID != "" {
		file.Parents = []string{u.folderID}
	}
	created, err := u.files.Create(file).
		Media(body).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("create drive file: %w", err)
	}
	return domain.UploadResult{RemoteID: created.Id, Link: created.WebViewLink}, nil
}
