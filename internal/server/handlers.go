package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/domain"
	"github.com/growthlens/growthlens/internal/intelligence"
	"github.com/growthlens/growthlens/internal/repositories/account"
	competitorrepo "github.com/growthlens/growthlens/internal/repositories/competitor"
	"github.com/growthlens/growthlens/internal/repositories/job"
	"github.com/growthlens/growthlens/internal/repositories/report"
	"github.com/growthlens/growthlens/internal/repositories/usage"
	"github.com/growthlens/growthlens/internal/worker"
	apperrors "github.com/growthlens/growthlens/pkg/errors"
)

const (
	defaultMaxPosts = 50
	minMaxPosts     = 10
	maxMaxPosts     = 100
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type analyzeRequest struct {
	AccountID uuid.UUID `json:"account_id" binding:"required"`
	MaxPosts  int       `json:"max_posts"`
}

// startAnalysis admits a new job: plan check, account check, at-most-one
// in-flight job per account, then hand-off to the worker pool.
func (s *Server) startAnalysis(c *gin.Context) {
	userID := currentUser(c)

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.MaxPosts == 0 {
		req.MaxPosts = defaultMaxPosts
	}
	if req.MaxPosts < minMaxPosts || req.MaxPosts > maxMaxPosts {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_posts must be between 10 and 100"})
		return
	}

	plan, err := s.usageRepo.GetPlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.fail(c, err)
		return
	}
	if plan.Exhausted() {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "Analysis limit reached. Upgrade to Pro to run unlimited analyses.",
		})
		return
	}

	acc, err := s.accountRepo.GetByID(c.Request.Context(), req.AccountID)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		s.fail(c, err)
		return
	}
	if acc == nil || acc.UserID != userID || !acc.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found or not connected"})
		return
	}

	if existing, err := s.jobRepo.FindInFlightByAccount(c.Request.Context(), req.AccountID); err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Analysis already in progress",
			"job_id": existing.ID,
		})
		return
	} else if !errors.Is(err, job.ErrNotFound) {
		s.fail(c, err)
		return
	}

	jobID, err := s.jobRepo.Create(c.Request.Context(), domain.AnalysisJob{
		UserID:      userID,
		AccountID:   req.AccountID,
		Status:      domain.JobStatusPending,
		CurrentStep: "Initializing...",
	})
	if err != nil {
		// The partial unique index closes the race between the in-flight
		// check above and this insert.
		if errors.Is(err, job.ErrInFlightExists) {
			if existing, ferr := s.jobRepo.FindInFlightByAccount(c.Request.Context(), req.AccountID); ferr == nil {
				c.JSON(http.StatusConflict, gin.H{
					"error":  "Analysis already in progress",
					"job_id": existing.ID,
				})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": "Analysis already in progress"})
			return
		}
		s.fail(c, err)
		return
	}

	if err := s.usageRepo.IncrementAnalysesUsed(c.Request.Context(), userID); err != nil {
		s.logger.Warn("Usage increment failed", "user_id", userID, "error", err)
	}

	if err := s.pool.Enqueue(worker.Task{JobID: jobID, AccountID: req.AccountID, MaxPosts: req.MaxPosts}); err != nil {
		if ferr := s.jobRepo.Fail(c.Request.Context(), jobID, "analysis queue is full"); ferr != nil {
			s.logger.Error("Failed to mark rejected job", "job_id", jobID, "error", ferr)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is busy, try again shortly"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

type jobStatusResponse struct {
	JobID         uuid.UUID  `json:"job_id"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"`
	CurrentStep   string     `json:"current_step"`
	PostsFetched  int        `json:"posts_fetched"`
	PostsAnalyzed int        `json:"posts_analyzed"`
	Error         string     `json:"error,omitempty"`
	ReportID      *uuid.UUID `json:"report_id,omitempty"`
}

func (s *Server) jobStatus(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	jb, err := s.jobRepo.GetByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		s.fail(c, err)
		return
	}
	if jb.UserID != currentUser(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	res := jobStatusResponse{
		JobID:         jb.ID,
		Status:        string(jb.Status),
		Progress:      jb.Progress,
		CurrentStep:   jb.CurrentStep,
		PostsFetched:  jb.PostsFetched,
		PostsAnalyzed: jb.PostsAnalyzed,
		Error:         jb.ErrorMessage,
	}

	if jb.Status == domain.JobStatusCompleted {
		if rpt, rerr := s.reportRepo.GetByJobID(c.Request.Context(), jb.ID); rerr == nil {
			res.ReportID = &rpt.ID
		}
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) getReport(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	rpt, err := s.reportRepo.GetByID(c.Request.Context(), reportID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		s.fail(c, err)
		return
	}
	if rpt.UserID != currentUser(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}

	c.JSON(http.StatusOK, toReportResponse(rpt))
}

func (s *Server) runComparison(c *gin.Context) {
	competitorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid competitor id"})
		return
	}

	cmp, err := s.competitors.Compare(c.Request.Context(), currentUser(c), competitorID)
	if err != nil {
		if errors.Is(err, competitorrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Competitor not found"})
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toComparisonResponse(cmp))
}

func (s *Server) getComparison(c *gin.Context) {
	competitorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid competitor id"})
		return
	}

	cmp, err := s.competitors.GetComparison(c.Request.Context(), currentUser(c), competitorID)
	if err != nil {
		if errors.Is(err, competitorrepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comparison not found"})
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toComparisonResponse(cmp))
}

type generateRequest struct {
	Platform       string `json:"platform" binding:"required"`
	ContentType    string `json:"content_type" binding:"required"`
	Topic          string `json:"topic" binding:"required"`
	Niche          string `json:"niche"`
	Tone           string `json:"tone"`
	TargetAudience string `json:"target_audience"`
	Count          int    `json:"count"`
}

var generateContentTypes = map[string]bool{
	"hook":      true,
	"caption":   true,
	"script":    true,
	"idea":      true,
	"hashtags":  true,
	"full_plan": true,
}

// generateContent drafts content in the creator's voice. When the caller
// omits a niche the latest report fills it in, along with theme and
// engagement context.
func (s *Server) generateContent(c *gin.Context) {
	userID := currentUser(c)

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	platform := domain.Platform(req.Platform)
	if !platform.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform"})
		return
	}
	if !generateContentTypes[req.ContentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported content_type"})
		return
	}

	genReq := intelligence.GenerateRequest{
		Platform:       platform,
		ContentType:    req.ContentType,
		Topic:          req.Topic,
		Niche:          req.Niche,
		Tone:           req.Tone,
		TargetAudience: req.TargetAudience,
		Count:          req.Count,
	}

	var genCtx *intelligence.GenerateContext
	if rpt, rerr := s.reportRepo.LatestByUser(c.Request.Context(), userID); rerr == nil {
		if genReq.Niche == "" {
			genReq.Niche = rpt.DetectedNiche
		}
		themes := make([]string, 0, len(rpt.ContentThemes))
		for _, th := range rpt.ContentThemes {
			themes = append(themes, th.Theme)
		}
		genCtx = &intelligence.GenerateContext{
			Niche:         rpt.DetectedNiche,
			TopThemes:     themes,
			AvgEngagement: rpt.AvgEngagementRate,
		}
	}

	content, err := s.intelligence.GenerateContent(c.Request.Context(), genReq, genCtx)
	if err != nil {
		if apperrors.IsServiceUnavailable(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Content generation is temporarily unavailable"})
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content_type": req.ContentType,
		"content":      content,
	})
}

// fail logs the error and answers 500 without leaking internals.
func (s *Server) fail(c *gin.Context, err error) {
	s.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
