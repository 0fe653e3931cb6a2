package service

import (
	"context"
	"sync"
	"time"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/margem-saas/margem-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// RenewalWorker periodically rolls passed renewal dates forward and announces upcoming renewals.
// It is the only place that reads the wall clock for renewal bookkeeping.
type RenewalWorker struct {
	contractService *ContractService
	workspaceRepo   domain.WorkspaceRepository
	publisher       websocket.EventPublisher
	logger          zerolog.Logger
	interval        time.Duration
	noticeDays      int
	now             func() time.Time
	stopCh          chan struct{}
	doneCh          chan struct{}
	mu              sync.Mutex
	running         bool
}

// RenewalWorkerConfig holds configuration for the renewal worker
type RenewalWorkerConfig struct {
	Interval   time.Duration // How often to run
	NoticeDays int           // How far ahead renewals are announced
	Now        func() time.Time
}

// DefaultRenewalWorkerConfig returns sensible defaults
func DefaultRenewalWorkerConfig() RenewalWorkerConfig {
	return RenewalWorkerConfig{
		Interval:   1 * time.Hour,
		NoticeDays: 30,
	}
}

// RenewalNotice is the payload of a renewal_due event
type RenewalNotice struct {
	ContractID     int32     `json:"contractId"`
	ContractorName string    `json:"contractorName"`
	RenewalDate    time.Time `json:"renewalDate"`
	DaysUntil      int       `json:"daysUntil"`
}

// NewRenewalWorker creates a new renewal worker
func NewRenewalWorker(
	contractService *ContractService,
	workspaceRepo domain.WorkspaceRepository,
	publisher websocket.EventPublisher,
	logger zerolog.Logger,
	config RenewalWorkerConfig,
) *RenewalWorker {
	if config.Interval <= 0 {
		config.Interval = 1 * time.Hour
	}
	if config.NoticeDays < 0 {
		config.NoticeDays = 0
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}

	return &RenewalWorker{
		contractService: contractService,
		workspaceRepo:   workspaceRepo,
		publisher:       publisher,
		logger:          logger.With().Str("component", "renewal_worker").Logger(),
		interval:        config.Interval,
		noticeDays:      config.NoticeDays,
		now:             config.Now,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start begins the background loop
func (w *RenewalWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Int("notice_days", w.noticeDays).
		Msg("Starting renewal worker")

	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *RenewalWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping renewal worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Renewal worker stopped")
}

func (w *RenewalWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.processAllWorkspaces(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.setStopped()
			return
		case <-w.stopCh:
			w.setStopped()
			return
		case <-ticker.C:
			w.processAllWorkspaces(ctx)
		}
	}
}

func (w *RenewalWorker) setStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

func (w *RenewalWorker) processAllWorkspaces(ctx context.Context) {
	startTime := time.Now()

	ids, err := w.workspaceRepo.ListIDs()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list workspaces for renewal check")
		return
	}

	totalRolled := 0
	totalNotices := 0
	totalErrors := 0
	for _, id := range ids {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Context cancelled, stopping renewal check")
			return
		case <-w.stopCh:
			w.logger.Info().Msg("Stop signal received, stopping renewal check")
			return
		default:
		}

		rolled, notices, err := w.ProcessWorkspace(id)
		if err != nil {
			w.logger.Error().Err(err).Int32("workspace_id", id).Msg("Failed to process renewals for workspace")
			totalErrors++
			continue
		}
		totalRolled += rolled
		totalNotices += notices
	}

	w.logger.Info().
		Int("workspaces", len(ids)).
		Int("rolled", totalRolled).
		Int("notices", totalNotices).
		Int("errors", totalErrors).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed renewal check")
}

// ProcessWorkspace rolls overdue renewal dates and publishes one notice per contract renewing
// inside the notice window. Returns the rolled and notified counts.
func (w *RenewalWorker) ProcessWorkspace(workspaceID int32) (int, int, error) {
	today := domain.DateOnly(w.now())

	rolled, err := w.contractService.RollRenewalDates(workspaceID, today)
	if err != nil {
		return rolled, 0, err
	}

	upcoming, err := w.contractService.UpcomingRenewals(workspaceID, today, w.noticeDays)
	if err != nil {
		return rolled, 0, err
	}
	for _, c := range upcoming {
		renewal := domain.DateOnly(*c.RenewalDate)
		w.publisher.Publish(workspaceID, websocket.ContractRenewalDue(RenewalNotice{
			ContractID:     c.ID,
			ContractorName: c.ContractorName,
			RenewalDate:    renewal,
			DaysUntil:      int(renewal.Sub(today).Hours() / 24),
		}))
		metrics.RenewalNotices.Inc()
	}
	return rolled, len(upcoming), nil
}

// IsRunning returns whether the worker is currently running
func (w *RenewalWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
