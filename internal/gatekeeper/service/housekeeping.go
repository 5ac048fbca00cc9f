package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
)

// HousekeepingService periodically removes expired database records.
// Expiry is still enforced inline (deadlines in the question flow, TTL
// at redemption); the sweep only bounds table growth for records nobody
// ever comes back for.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker. Blocks until any
// in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the actual deletion of expired records. Each sweep is
// independent; a failure in one never stops the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping cleanup")

	if err := s.Store.Sessions().DeleteExpiredSessions(ctx); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	}
	if err := s.Store.PendingCodes().DeleteExpiredPendingCodes(ctx); err != nil {
		s.Logger.Error("failed to delete expired pending codes", "error", err)
	}
	if err := s.Store.Cooldowns().DeleteExpiredCooldowns(ctx); err != nil {
		s.Logger.Error("failed to delete expired cooldowns", "error", err)
	}
	if err := s.Store.ReviewTickets().DeleteDecidedReviewTickets(ctx); err != nil {
		s.Logger.Error("failed to delete decided review tickets", "error", err)
	}

	s.Logger.Debug("housekeeping cleanup completed")
}
