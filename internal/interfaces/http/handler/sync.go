package handler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/application/edisync"
	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/infrastructure/logger"
	"github.com/erp/edisync/internal/infrastructure/scheduler"
	"github.com/erp/edisync/internal/interfaces/http/dto"
	"github.com/erp/edisync/internal/interfaces/http/router"
)

// SyncRunner runs sync cycles on demand
type SyncRunner interface {
	RunNow(ctx context.Context, actionIDs ...uuid.UUID) (*edisync.RunReport, error)
	RunConfigNow(ctx context.Context, configID uuid.UUID) (*edisync.RunReport, error)
	LastReport() (*edisync.RunReport, time.Time)
}

// ConnectionTester opens and closes a session against a config's endpoint
type ConnectionTester interface {
	Test(ctx context.Context, configID uuid.UUID) error
}

var (
	_ SyncRunner       = (*scheduler.SyncTrigger)(nil)
	_ ConnectionTester = (*edisync.ConnectionTester)(nil)
)

// SyncHandler exposes manual sync runs and connection tests
type SyncHandler struct {
	BaseHandler
	runner SyncRunner
	tester ConnectionTester
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(runner SyncRunner, tester ConnectionTester) *SyncHandler {
	return &SyncHandler{runner: runner, tester: tester}
}

// RegisterRoutes mounts the EDI routes under rg
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	edi := router.NewDomainGroup("edi", "/edi")
	edi.Group("sync", "/sync").
		POST("/run", h.RunSync).
		GET("/last", h.LastRun)
	edi.Group("configs", "/configs").
		POST("/:id/sync", h.SyncConfig).
		POST("/:id/test-connection", h.TestConnection)
	edi.RegisterRoutes(rg)
}

// RunSync runs the due actions, or exactly the listed ones.
// The request body is optional.
func (h *SyncHandler) RunSync(c *gin.Context) {
	var req dto.RunSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}
	ids, err := req.ParseActionIDs()
	if err != nil {
		h.BadRequest(c, "Invalid action ID")
		return
	}

	report, err := h.runner.RunNow(c.Request.Context(), ids...)
	if err != nil {
		h.runError(c, err)
		return
	}
	h.Success(c, dto.NewRunReportResponse(report))
}

// SyncConfig forces every action of one config
func (h *SyncHandler) SyncConfig(c *gin.Context) {
	configID, ok := h.configID(c)
	if !ok {
		return
	}

	report, err := h.runner.RunConfigNow(c.Request.Context(), configID)
	if err != nil {
		h.runError(c, err)
		return
	}
	h.Success(c, dto.NewRunReportResponse(report))
}

// LastRun returns the report of the most recent cycle of this instance
func (h *SyncHandler) LastRun(c *gin.Context) {
	report, _ := h.runner.LastReport()
	if report == nil {
		h.NotFound(c, "No sync cycle has completed yet")
		return
	}
	h.Success(c, dto.NewRunReportResponse(report))
}

// TestConnection checks that a config's endpoint accepts a session
func (h *SyncHandler) TestConnection(c *gin.Context) {
	configID, ok := h.configID(c)
	if !ok {
		return
	}

	err := h.tester.Test(c.Request.Context(), configID)
	switch {
	case err == nil:
		h.Success(c, dto.ConnectionTestResponse{
			ConfigID: configID.String(),
			Message:  "Connection successful",
		})
	case errors.Is(err, edi.ErrConfigNotFound):
		h.NotFound(c, "Sync config not found")
	default:
		logger.GetGinLogger(c).Warn("Connection test failed",
			zap.String("config_id", configID.String()),
			zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeConnectionFailed, err.Error())
	}
}

func (h *SyncHandler) configID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid config ID")
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

func (h *SyncHandler) runError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrCycleInProgress):
		h.ErrorWithCode(c, dto.ErrCodeCycleInProgress, "A sync cycle is already running")
	case errors.Is(err, scheduler.ErrCycleFailed):
		logger.GetGinLogger(c).Error("Manual sync cycle failed", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeCycleFailed, "Sync cycle failed")
	default:
		logger.GetGinLogger(c).Error("Manual sync cycle could not start", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, "Sync cycle could not start")
	}
}
