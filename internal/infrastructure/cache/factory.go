package cache

import (
	"fmt"

	"github.com/erp/edisync/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RunLockFactory creates run locks based on configuration
type RunLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RunLockFactoryOption is a functional option for configuring the factory
type RunLockFactoryOption func(*RunLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRunLockFactory creates a new factory
func NewRunLockFactory(cfg config.RedisConfig, opts ...RunLockFactoryOption) *RunLockFactory {
	f := &RunLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisLock creates a Redis-backed run lock
func (f *RunLockFactory) CreateRedisLock() (RunLock, error) {
	lock, err := NewRedisRunLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis run lock: %w", err)
	}
	return lock, nil
}

// CreateLock tries Redis first and falls back to an in-memory lock when
// allowed. An in-memory lock does not stop two instances from running the
// same cycle.
func (f *RunLockFactory) CreateLock() (RunLock, error) {
	if f.redisConfig.Host == "" {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis host is not configured")
		}
		f.logger.Info("Redis not configured, using in-memory run lock")
		return NewInMemoryRunLock(), nil
	}

	lock, err := f.CreateRedisLock()
	if err == nil {
		f.logger.Info("Using Redis run lock")
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for run lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory run lock. "+
		"Concurrent instances may run overlapping sync cycles.",
		zap.Error(err),
	)
	return NewInMemoryRunLock(), nil
}
