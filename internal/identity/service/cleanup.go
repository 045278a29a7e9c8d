package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/internal/identity/store"
)

// CleanupService periodically purges pending registrations that were never
// finalized, together with their verification records, to keep the staging
// tables from growing without bound.
type CleanupService struct {
	Store  store.Store
	Logger *slog.Logger

	// Interval between sweeps; Retention is how long a pending registration
	// may sit before it is purged.
	Interval  time.Duration
	Retention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewCleanupService creates a cleanup service. Non-positive interval or
// retention fall back to 60s and 15m respectively.
func NewCleanupService(store store.Store, logger *slog.Logger, interval, retention time.Duration) *CleanupService {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if retention <= 0 {
		retention = 15 * time.Minute
	}

	return &CleanupService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *CleanupService) Start() {
	go s.run()
	s.Logger.Info("cleanup service started",
		"interval", s.Interval,
		"retention", s.Retention,
	)
}

// Stop shuts down the worker, blocking until any in-progress sweep finishes.
func (s *CleanupService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("cleanup service stopped")
}

func (s *CleanupService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup.
	s.sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// sweep purges every pending registration older than the retention window.
// Each registration and its verification records go in one transaction, so
// a failure mid-sweep never strands verification rows without their owner.
// Errors are logged, never fatal; the next tick retries.
func (s *CleanupService) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.Retention)

	stale, err := s.Store.PendingRegistrations().ListCreatedBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to list stale pending registrations", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	var purged int
	for _, pending := range stale {
		subject := domain.NewPendingSubject(pending.ID)
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Verifications().DeleteBySubject(ctx, subject); err != nil {
				return err
			}
			// No-op if a concurrent finalize already removed the row.
			return tx.PendingRegistrations().Delete(ctx, pending.ID)
		})
		if err != nil {
			s.Logger.Error("failed to purge pending registration",
				"pending_id", pending.ID,
				"error", err,
			)
			continue
		}
		purged++
	}

	s.Logger.Info("cleanup sweep completed",
		"stale", len(stale),
		"purged", purged,
		"cutoff", cutoff,
	)
}
