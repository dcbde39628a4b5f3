package notifyimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ScheduleWeeklyDigest fires a digest notification every Monday morning to
// each user who received at least one report in the trailing week.
func (n *WebhookNotifier) ScheduleWeeklyDigest(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.WeeklyJob(1,
			gocron.NewWeekdays(time.Monday),
			gocron.NewAtTimes(gocron.NewAtTime(9, 0, 0)),
		),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				n.logger.Info("Context cancelled, stopping weekly digest schedule")
				return
			}
			taskCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			n.runDigest(taskCtx)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule weekly digest: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		if err := scheduler.Shutdown(); err != nil {
			n.logger.Error("Failed to shut down digest scheduler", "error", err)
		}
	}()

	n.logger.Info("Weekly digest scheduled")
	return nil
}

func (n *WebhookNotifier) runDigest(ctx context.Context) {
	since := n.now().AddDate(0, 0, -7)

	userIDs, err := n.reportRepo.UserIDsWithReportsSince(ctx, since)
	if err != nil {
		n.logger.Error("Weekly digest user lookup failed", "error", err)
		return
	}

	n.logger.Info("Dispatching weekly digest", "users", len(userIDs))
	for _, userID := range userIDs {
		// The digest links to the dashboard rather than embedding report
		// details, so one event per user is enough.
		if err := n.WeeklyDigest(ctx, userID, 1); err != nil {
			n.logger.Warn("Weekly digest send failed", "user_id", userID, "error", err)
		}
	}
}
