package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/margem-saas/margem-backend/internal/reporting"
	"github.com/margem-saas/margem-backend/internal/repository/storage"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// ReportLinkExpiry is how long the download link of an archived report stays valid
const ReportLinkExpiry = 15 * time.Minute

// ReportService renders profitability exports and archives them when object storage is configured
type ReportService struct {
	profitService *ProfitService
	store         storage.ObjectStore
	now           func() time.Time
}

// NewReportService creates a new ReportService. store may be nil, which disables logos and archiving.
func NewReportService(profitService *ProfitService, store storage.ObjectStore) *ReportService {
	return &ReportService{
		profitService: profitService,
		store:         store,
		now:           time.Now,
	}
}

// ReportRequest selects what a report covers
type ReportRequest struct {
	Month    domain.AnalysisMonth
	ViewMode domain.ViewMode
	Filters  domain.ProfitFilters
	Format   reporting.Format
}

// GeneratedReport is a rendered report ready to be served
type GeneratedReport struct {
	Data        []byte
	ContentType string
	Filename    string
	// ArchivePath and DownloadURL are set only when the report was archived
	ArchivePath string
	DownloadURL string
}

// Generate runs the analysis for the request and renders it
func (s *ReportService) Generate(ctx context.Context, workspaceID int32, req ReportRequest) (*GeneratedReport, error) {
	generator, err := reporting.NewGenerator(req.Format)
	if err != nil {
		return nil, err
	}

	analysis, err := s.profitService.Analyze(workspaceID, req.Month, req.ViewMode, req.Filters)
	if err != nil {
		return nil, err
	}

	report := &reporting.ProfitReport{
		WorkspaceName: analysis.Workspace.Name,
		Month:         req.Month,
		ViewMode:      req.ViewMode,
		GeneratedAt:   s.now(),
		Summary:       analysis.Summary,
		Contracts:     analysis.Contracts,
	}
	if req.Format == reporting.FormatPDF {
		report.Logo = s.loadLogo(ctx, analysis.Workspace)
	}

	data, err := generator.Generate(report)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s report: %w", req.Format, err)
	}
	metrics.ReportsGenerated.WithLabelValues(string(req.Format)).Inc()

	return &GeneratedReport{
		Data:        data,
		ContentType: req.Format.ContentType(),
		Filename:    reporting.Filename(report, req.Format),
	}, nil
}

// GenerateAndArchive renders the report and stores a copy, returning a presigned download link
func (s *ReportService) GenerateAndArchive(ctx context.Context, workspaceID int32, req ReportRequest) (*GeneratedReport, error) {
	if s.store == nil {
		return nil, storage.ErrStorageNotConfigured
	}

	generated, err := s.Generate(ctx, workspaceID, req)
	if err != nil {
		return nil, err
	}

	key := ulid.MustNew(ulid.Timestamp(s.now()), ulid.DefaultEntropy()).String()
	objectPath := storage.ReportPath(workspaceID, key, generated.Filename)
	if _, err := s.store.Upload(ctx, objectPath, bytes.NewReader(generated.Data), generated.ContentType, int64(len(generated.Data))); err != nil {
		return nil, err
	}

	url, err := s.store.GeneratePresignedURL(ctx, objectPath, ReportLinkExpiry)
	if err != nil {
		return nil, err
	}

	generated.ArchivePath = objectPath
	generated.DownloadURL = url
	log.Info().
		Int32("workspace_id", workspaceID).
		Str("path", objectPath).
		Msg("Archived profitability report")
	return generated, nil
}

// loadLogo returns the workspace logo, or nil when there is none or it cannot be read
func (s *ReportService) loadLogo(ctx context.Context, workspace *domain.Workspace) []byte {
	if s.store == nil || workspace.LogoPath == nil {
		return nil
	}
	data, err := s.store.Download(ctx, *workspace.LogoPath)
	if err != nil {
		log.Warn().Err(err).
			Int32("workspace_id", workspace.ID).
			Str("path", *workspace.LogoPath).
			Msg("Rendering report without logo")
		return nil
	}
	return data
}
