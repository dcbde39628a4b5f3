package competitorimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ScheduleSnapshotRefresh keeps competitor snapshots within the configured
// staleness window by re-scraping on a fixed cadence.
func (s *ServiceImpl) ScheduleSnapshotRefresh(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	interval := time.Duration(s.cfg.Competitor.RefreshHours) * time.Hour

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				s.logger.Info("Context cancelled, stopping competitor refresh schedule")
				return
			}
			taskCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
			defer cancel()

			if err := s.RefreshStaleSnapshots(taskCtx); err != nil {
				s.logger.Error("Competitor snapshot refresh failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule competitor refresh: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		if err := scheduler.Shutdown(); err != nil {
			s.logger.Error("Failed to shut down competitor refresh scheduler", "error", err)
		}
	}()

	s.logger.Info("Competitor snapshot refresh scheduled", "interval", interval)
	return nil
}
