package notifyimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/notify"
	"github.com/growthlens/growthlens/internal/repositories/report"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config     *config.Config
	Logger     logger.Logger
	ReportRepo report.Repository
}

// WebhookNotifier posts notification events to a configured webhook. An
// empty webhook URL disables delivery entirely.
type WebhookNotifier struct {
	cfg        *config.Config
	logger     logger.Logger
	reportRepo report.Repository
	httpClient *http.Client
	now        func() time.Time
}

func New(opts Opts) *WebhookNotifier {
	return &WebhookNotifier{
		cfg:        opts.Config,
		logger:     opts.Logger.WithComponent("Notifier"),
		reportRepo: opts.ReportRepo,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

var _ notify.Notifier = (*WebhookNotifier)(nil)

type event struct {
	Type      string         `json:"type"`
	UserID    uuid.UUID      `json:"user_id"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

func (n *WebhookNotifier) AnalysisReady(ctx context.Context, userID uuid.UUID, rpt domain.AnalysisReport) error {
	topInsight := "Review your full report for actionable next steps."
	if len(rpt.Weaknesses) > 0 {
		topInsight = rpt.Weaknesses[0].Description
	} else if len(rpt.Opportunities) > 0 {
		topInsight = rpt.Opportunities[0].Description
	}

	return n.send(ctx, event{
		Type:   "analysis_ready",
		UserID: userID,
		Payload: map[string]any{
			"report_id":    rpt.ID,
			"growth_score": rpt.GrowthScore,
			"niche":        rpt.DetectedNiche,
			"top_insight":  topInsight,
		},
		Timestamp: n.now().UTC(),
	})
}

func (n *WebhookNotifier) WeeklyDigest(ctx context.Context, userID uuid.UUID, reportCount int) error {
	return n.send(ctx, event{
		Type:   "weekly_digest",
		UserID: userID,
		Payload: map[string]any{
			"report_count": reportCount,
		},
		Timestamp: n.now().UTC(),
	})
}

func (n *WebhookNotifier) send(ctx context.Context, e event) error {
	if n.cfg.Notify.WebhookURL == "" {
		n.logger.Debug("Webhook URL not configured, dropping notification", "type", e.Type)
		return nil
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.Notify.WebhookURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", res.StatusCode)
	}
	return nil
}
