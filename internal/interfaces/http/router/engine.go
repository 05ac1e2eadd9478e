package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/infrastructure/config"
	"github.com/erp/edisync/internal/infrastructure/logger"
	"github.com/erp/edisync/internal/interfaces/http/middleware"
)

// EngineConfig holds the settings of the gin engine and its middleware chain
type EngineConfig struct {
	TrustedProxies []string
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	Tracing        middleware.TracingConfig
}

// EngineConfigFrom derives the engine settings from the application config
func EngineConfigFrom(cfg *config.Config) EngineConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.ServiceName != "" {
		tracing.ServiceName = cfg.Telemetry.ServiceName
	}

	return EngineConfig{
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           cors,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		Tracing:        tracing,
	}
}

// NewEngine creates a gin engine with the standard middleware chain:
// request id, tracing, request logging, panic recovery, security headers,
// CORS and the body limit.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log, logger.WithQuietPaths("/health")))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	return engine, nil
}
