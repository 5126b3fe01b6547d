// Package jobs runs the periodic maintenance tasks on a cron schedule.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Schedules use the seconds field.
const (
	CleanupSpec      = "0 0 0 * * *"    // nightly at 12:00 AM
	CacheRefreshSpec = "0 */15 * * * *" // every 15 minutes
)

const jobTimeout = time.Minute

// VisitCleaner purges expired visitor records.
type VisitCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// CacheRefresher refetches the public lists into the cache.
type CacheRefresher interface {
	RefreshCache(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	cleaner VisitCleaner
	cache   CacheRefresher
	log     *zap.Logger
}

func NewScheduler(cleaner VisitCleaner, refresher CacheRefresher, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		cleaner: cleaner,
		cache:   refresher,
		log:     log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cleaner != nil {
		if _, err := s.cron.AddFunc(CleanupSpec, s.RunCleanup); err != nil {
			return err
		}
	}
	if s.cache != nil {
		if _, err := s.cron.AddFunc(CacheRefreshSpec, s.RunCacheRefresh); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.log.Info("cron scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) Entries() []cron.Entry { return s.cron.Entries() }

func (s *Scheduler) RunCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.cleaner.Cleanup(ctx)
	if err != nil {
		s.log.Error("visitor cleanup failed", zap.Error(err))
		return
	}
	s.log.Info("visitor cleanup completed", zap.Int64("removed", n))
}

func (s *Scheduler) RunCacheRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.cache.RefreshCache(ctx); err != nil {
		s.log.Warn("cache refresh failed", zap.Error(err))
		return
	}
	s.log.Debug("portfolio cache refreshed")
}
