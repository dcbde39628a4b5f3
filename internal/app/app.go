package app

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/growthlens/growthlens/internal/analyzer/analyzerimpl"
	"github.com/growthlens/growthlens/internal/competitor/competitorimpl"
	"github.com/growthlens/growthlens/internal/intelligence/anthropic"
	"github.com/growthlens/growthlens/internal/nlp/nlpimpl"
	"github.com/growthlens/growthlens/internal/notify/notifyimpl"
	"github.com/growthlens/growthlens/internal/platform"
	"github.com/growthlens/growthlens/internal/platform/instagram"
	"github.com/growthlens/growthlens/internal/platform/tiktok"
	"github.com/growthlens/growthlens/internal/platform/youtube"
	repositories "github.com/growthlens/growthlens/internal/repositories/fx"
	"github.com/growthlens/growthlens/internal/server"
	"github.com/growthlens/growthlens/internal/tokens/tokensimpl"
	"github.com/growthlens/growthlens/internal/worker"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/growthlens/growthlens/pkg/pgx"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
)

var App = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	fx.Provide(
		tiktok.New,
		instagram.New,
		youtube.New,
		func(tt *tiktok.Adapter, ig *instagram.Adapter, yt *youtube.Adapter) *platform.Registry {
			return platform.NewRegistry(tt, ig, yt)
		},
	),
	repositories.Module,
	tokensimpl.Module,
	anthropic.Module,
	nlpimpl.Module,
	analyzerimpl.Module,
	competitorimpl.Module,
	notifyimpl.Module,
	worker.Module,
	server.Module,
	fx.Invoke(migrate),
	fx.Invoke(schedule),
)

// migrate applies pending goose migrations before anything touches the pool.
func migrate(c *config.Config) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", c.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	return goose.Up(db, filepath.Join(wd, "migrations"))
}

// schedule starts the recurring jobs under a context that outlives any
// single request and is cancelled on shutdown.
func schedule(lc fx.Lifecycle, comps *competitorimpl.ServiceImpl, notifier *notifyimpl.WebhookNotifier) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := comps.ScheduleSnapshotRefresh(ctx); err != nil {
				cancel()
				return err
			}
			if err := notifier.ScheduleWeeklyDigest(ctx); err != nil {
				cancel()
				return err
			}
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
