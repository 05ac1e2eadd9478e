package handler

import (
	"context"
	"net/http"
	"runtime"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/application/edisync"
	"github.com/erp/edisync/internal/infrastructure/logger"
	"github.com/erp/edisync/internal/interfaces/http/dto"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
	checkStatusOK         = "ok"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// CycleReporter reports the most recent completed sync cycle
type CycleReporter interface {
	LastReport() (*edisync.RunReport, time.Time)
}

// HealthHandler serves liveness and dependency status
type HealthHandler struct {
	BaseHandler
	startTime    time.Time
	version      string
	checkTimeout time.Duration
	checkNames   []string
	checks       map[string]HealthCheck
	cycles       CycleReporter
}

// HealthOption configures a HealthHandler
type HealthOption func(*HealthHandler)

// WithHealthCheck registers a named dependency check
func WithHealthCheck(name string, check HealthCheck) HealthOption {
	return func(h *HealthHandler) {
		if _, exists := h.checks[name]; !exists {
			h.checkNames = append(h.checkNames, name)
		}
		h.checks[name] = check
	}
}

// WithCycleReporter adds the last cycle time to the response
func WithCycleReporter(r CycleReporter) HealthOption {
	return func(h *HealthHandler) {
		h.cycles = r
	}
}

// WithCheckTimeout bounds each check
func WithCheckTimeout(d time.Duration) HealthOption {
	return func(h *HealthHandler) {
		if d > 0 {
			h.checkTimeout = d
		}
	}
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		startTime:    time.Now(),
		version:      version,
		checkTimeout: 2 * time.Second,
		checks:       make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	slices.Sort(h.checkNames)
	return h
}

// Health reports 200 when every check passes and 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:  healthStatusHealthy,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Checks:  make(map[string]string, len(h.checks)),
	}

	for _, name := range h.checkNames {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Status = healthStatusUnhealthy
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = checkStatusOK
	}

	if h.cycles != nil {
		if report, at := h.cycles.LastReport(); report != nil {
			resp.LastCycle = &at
		}
	}

	status := http.StatusOK
	if resp.Status != healthStatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// SystemInfoResponse describes the running binary
type SystemInfoResponse struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Info returns build and runtime information
func (h *HealthHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
