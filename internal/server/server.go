// Package server exposes the analysis engine over HTTP. Identity arrives as
// an X-User-ID header set by the gateway in front of this service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/growthlens/growthlens/internal/competitor"
	"github.com/growthlens/growthlens/internal/intelligence"
	"github.com/growthlens/growthlens/internal/ratelimit"
	"github.com/growthlens/growthlens/internal/repositories/account"
	"github.com/growthlens/growthlens/internal/repositories/job"
	"github.com/growthlens/growthlens/internal/repositories/report"
	"github.com/growthlens/growthlens/internal/repositories/usage"
	"github.com/growthlens/growthlens/internal/worker"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config       *config.Config
	Logger       logger.Logger
	Pool         *worker.Pool
	AccountRepo  account.Repository
	JobRepo      job.Repository
	ReportRepo   report.Repository
	UsageRepo    usage.Repository
	Competitors  competitor.Service
	Intelligence intelligence.Client
}

type Server struct {
	cfg          *config.Config
	logger       logger.Logger
	pool         *worker.Pool
	accountRepo  account.Repository
	jobRepo      job.Repository
	reportRepo   report.Repository
	usageRepo    usage.Repository
	competitors  competitor.Service
	intelligence intelligence.Client
	limiter      ratelimit.Limiter
}

func New(opts Opts) *Server {
	return &Server{
		cfg:          opts.Config,
		logger:       opts.Logger.WithComponent("Server"),
		pool:         opts.Pool,
		accountRepo:  opts.AccountRepo,
		jobRepo:      opts.JobRepo,
		reportRepo:   opts.ReportRepo,
		usageRepo:    opts.UsageRepo,
		competitors:  opts.Competitors,
		intelligence: opts.Intelligence,
		limiter:      ratelimit.NewInMemoryLimiter(1, time.Second, 10),
	}
}

// Routes builds the gin engine with all handlers attached.
func (s *Server) Routes() *gin.Engine {
	if s.cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.health)

	api := engine.Group("/api", s.requireUser(), s.rateLimit())
	{
		api.POST("/analyze", s.startAnalysis)
		api.GET("/analyze/status/:id", s.jobStatus)
		api.GET("/reports/:id", s.getReport)
		api.POST("/competitors/:id/compare", s.runComparison)
		api.GET("/competitors/:id/compare", s.getComparison)
		api.POST("/generate", s.generateContent)
	}

	return engine
}

var Module = fx.Module("http_server",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Server) {
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", s.cfg.App.Port),
			Handler: s.Routes(),
		}

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					s.logger.Info("HTTP server starting", "addr", srv.Addr)
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						s.logger.Error("HTTP server failed", "error", err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
		})
	}),
)
