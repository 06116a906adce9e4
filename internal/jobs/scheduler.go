// Package jobs runs periodic housekeeping on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

const (
	otpCleanupSpec = "@hourly"
	kvSweepSpec    = "*/10 * * * *"
	jobTimeout     = time.Minute
)

// Sweeper drops expired entries from an in-process store.
type Sweeper interface {
	Sweep() int
}

type Scheduler struct {
	cron    *cron.Cron
	repo    repositories.Repository
	sweeper Sweeper
	logger  *slog.Logger
	now     func() time.Time
}

// NewScheduler builds the job set. sweeper may be nil when counters live in Redis.
func NewScheduler(repo repositories.Repository, sweeper Sweeper, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		repo:    repo,
		sweeper: sweeper,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(otpCleanupSpec, s.runOTPCleanup); err != nil {
		return fmt.Errorf("failed to schedule otp cleanup: %w", err)
	}
	if s.sweeper != nil {
		if _, err := s.cron.AddFunc(kvSweepSpec, s.runSweep); err != nil {
			return fmt.Errorf("failed to schedule kv sweep: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
	}
}

// PruneOTPCodes deletes codes that expired or were used.
func (s *Scheduler) PruneOTPCodes(ctx context.Context) (int64, error) {
	return s.repo.OTP().DeleteExpired(ctx, nil, s.now())
}

func (s *Scheduler) runOTPCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.PruneOTPCodes(ctx)
	if err != nil {
		s.logger.Error("OTP cleanup failed", "error", err)
		return
	}
	s.logger.Info("OTP cleanup finished", "deleted", n)
}

func (s *Scheduler) runSweep() {
	if n := s.sweeper.Sweep(); n > 0 {
		s.logger.Debug("KV sweep finished", "expired", n)
	}
}
