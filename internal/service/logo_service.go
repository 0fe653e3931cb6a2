package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/repository/storage"
	"github.com/rs/zerolog/log"
)

const (
	MaxLogoSize     = 2 * 1024 * 1024
	MinLogoWidth    = 64
	MinLogoHeight   = 32
	LogoWidth       = 400
	LogoJPEGQuality = 90
)

var (
	ErrLogoTooLarge        = errors.New("file too large. Maximum size is 2MB")
	ErrLogoInvalidFormat   = errors.New("invalid format. Supported: JPEG, PNG")
	ErrLogoTooSmall        = errors.New("image too small. Minimum 64x32 pixels")
	ErrLogoInvalidData     = errors.New("invalid image data")
	ErrLogoStoreNotEnabled = errors.New("logo storage not configured")
)

var logoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// LogoService normalizes workspace logos to a fixed-width JPEG used on report covers
type LogoService struct {
	store            storage.ObjectStore
	workspaceService *WorkspaceService
}

// NewLogoService creates a new LogoService. A nil store disables uploads.
func NewLogoService(store storage.ObjectStore, workspaceService *WorkspaceService) *LogoService {
	return &LogoService{store: store, workspaceService: workspaceService}
}

// IsEnabled indicates whether logos can be stored
func (s *LogoService) IsEnabled() bool {
	return s != nil && s.store != nil
}

// ValidateLogo checks size, extension and dimensions
func (s *LogoService) ValidateLogo(data []byte, filename string) error {
	_, err := decodeLogo(data, filename)
	return err
}

func decodeLogo(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxLogoSize {
		return nil, ErrLogoTooLarge
	}
	if !logoExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil, ErrLogoInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrLogoInvalidData
	}
	bounds := img.Bounds()
	if bounds.Dx() < MinLogoWidth || bounds.Dy() < MinLogoHeight {
		return nil, ErrLogoTooSmall
	}
	return img, nil
}

// UploadLogo stores a new logo for the workspace and removes the previous one
func (s *LogoService) UploadLogo(ctx context.Context, workspaceID int32, data []byte, filename string) (*domain.Workspace, error) {
	if !s.IsEnabled() {
		return nil, ErrLogoStoreNotEnabled
	}

	img, err := decodeLogo(data, filename)
	if err != nil {
		return nil, err
	}

	workspace, err := s.workspaceService.GetWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	if img.Bounds().Dx() != LogoWidth {
		img = imaging.Resize(img, LogoWidth, 0, imaging.Lanczos)
	}
	// JPEG has no alpha; flatten transparent PNGs onto white
	flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), image.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: LogoJPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}

	objectPath := storage.LogoPath(workspaceID, uuid.New().String())
	if _, err := s.store.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
		return nil, err
	}

	updated, err := s.workspaceService.SetLogoPath(workspaceID, &objectPath)
	if err != nil {
		_ = s.store.Delete(ctx, objectPath)
		return nil, err
	}

	s.deleteObject(ctx, workspaceID, workspace.LogoPath)
	return updated, nil
}

// DeleteLogo removes the workspace logo, if any
func (s *LogoService) DeleteLogo(ctx context.Context, workspaceID int32) (*domain.Workspace, error) {
	if !s.IsEnabled() {
		return nil, ErrLogoStoreNotEnabled
	}

	workspace, err := s.workspaceService.GetWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace.LogoPath == nil {
		return workspace, nil
	}

	updated, err := s.workspaceService.SetLogoPath(workspaceID, nil)
	if err != nil {
		return nil, err
	}
	s.deleteObject(ctx, workspaceID, workspace.LogoPath)
	return updated, nil
}

// LogoURL returns a temporary link to the current logo, or "" when there is none
func (s *LogoService) LogoURL(ctx context.Context, workspace *domain.Workspace) (string, error) {
	if !s.IsEnabled() || workspace.LogoPath == nil {
		return "", nil
	}
	return s.store.GeneratePresignedURL(ctx, *workspace.LogoPath, ReportLinkExpiry)
}

// deleteObject logs and ignores failures
func (s *LogoService) deleteObject(ctx context.Context, workspaceID int32, objectPath *string) {
	if objectPath == nil {
		return
	}
	if err := s.store.Delete(ctx, *objectPath); err != nil {
		log.Warn().Err(err).
			Int32("workspace_id", workspaceID).
			Str("path", *objectPath).
			Msg("Failed to delete previous logo")
	}
}
