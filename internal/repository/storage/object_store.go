package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	ErrStorageNotConfigured = errors.New("object storage not configured")
	ErrObjectNotFound       = errors.New("object not found")
)

// ObjectStore stores binary artifacts (workspace logos, archived reports) under object paths
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Download(ctx context.Context, objectPath string) ([]byte, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

var _ ObjectStore = (*S3ObjectStore)(nil)

// LogoPath is where a workspace logo version is stored
func LogoPath(workspaceID int32, id string) string {
	return fmt.Sprintf("%d/logo/%s.jpg", workspaceID, id)
}

// ReportPath is where an archived report is stored. key sorts chronologically.
func ReportPath(workspaceID int32, key, filename string) string {
	return fmt.Sprintf("%d/reports/%s/%s", workspaceID, key, filename)
}
