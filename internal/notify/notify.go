// Package notify dispatches user-facing notifications. Every send is
// best-effort: callers log failures and move on.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=notify.go -destination=mocks/mock.go
type Notifier interface {
	// AnalysisReady announces a freshly completed report.
	AnalysisReady(ctx context.Context, userID uuid.UUID, report domain.AnalysisReport) error

	// WeeklyDigest announces that new reports landed for the user during
	// the past week.
	WeeklyDigest(ctx context.Context, userID uuid.UUID, reportCount int) error
}
