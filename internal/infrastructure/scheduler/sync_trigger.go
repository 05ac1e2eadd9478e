package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/application/edisync"
	"github.com/erp/edisync/internal/infrastructure/cache"
	"github.com/erp/edisync/internal/infrastructure/config"
)

// CycleRunner runs dispatcher cycles
type CycleRunner interface {
	Run(ctx context.Context, actionIDs ...uuid.UUID) (*edisync.RunReport, error)
	RunConfig(ctx context.Context, configID uuid.UUID) (*edisync.RunReport, error)
}

var _ CycleRunner = (*edisync.Dispatcher)(nil)

// SyncTriggerConfig holds configuration for the sync trigger
type SyncTriggerConfig struct {
	// CheckInterval is how often a cycle is started
	CheckInterval time.Duration

	// CycleTimeout bounds one dispatcher cycle
	CycleTimeout time.Duration

	// LockTTL is the cycle lock expiry; it must exceed CycleTimeout so the
	// lock cannot lapse while a cycle is still running
	LockTTL time.Duration

	LockName string

	// RunOnStart starts the first cycle immediately instead of after one interval
	RunOnStart bool
}

// DefaultSyncTriggerConfig returns default trigger configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		CheckInterval: 5 * time.Minute,
		CycleTimeout:  30 * time.Minute,
		LockTTL:       31 * time.Minute,
		LockName:      "sync-cycle",
		RunOnStart:    true,
	}
}

// SyncTriggerConfigFrom maps the application scheduler section
func SyncTriggerConfigFrom(cfg config.SchedulerConfig) SyncTriggerConfig {
	return SyncTriggerConfig{
		CheckInterval: cfg.CheckInterval,
		CycleTimeout:  cfg.CycleTimeout,
		LockTTL:       cfg.LockTTL,
		LockName:      cfg.LockName,
		RunOnStart:    true,
	}
}

// Validate checks the trigger configuration
func (c SyncTriggerConfig) Validate() error {
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	if c.CycleTimeout <= 0 {
		return fmt.Errorf("%w: cycle timeout must be positive", ErrInvalidConfig)
	}
	if c.LockTTL <= c.CycleTimeout {
		return fmt.Errorf("%w: lock ttl (%s) must exceed cycle timeout (%s)", ErrInvalidConfig, c.LockTTL, c.CycleTimeout)
	}
	if c.LockName == "" {
		return fmt.Errorf("%w: lock name is required", ErrInvalidConfig)
	}
	return nil
}

// SyncTrigger starts dispatcher cycles periodically. Every cycle, periodic or
// manual, runs under the cycle lock so two cycles never overlap.
type SyncTrigger struct {
	config SyncTriggerConfig
	runner CycleRunner
	lock   cache.RunLock
	logger *zap.Logger

	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	isRunning  bool
	lastReport *edisync.RunReport
	lastRunAt  time.Time
}

// SyncTriggerOption is a functional option for the trigger
type SyncTriggerOption func(*SyncTrigger)

// WithTriggerLogger sets the logger
func WithTriggerLogger(logger *zap.Logger) SyncTriggerOption {
	return func(t *SyncTrigger) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewSyncTrigger creates a new sync trigger
func NewSyncTrigger(cfg SyncTriggerConfig, runner CycleRunner, lock cache.RunLock, opts ...SyncTriggerOption) (*SyncTrigger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runner == nil || lock == nil {
		return nil, fmt.Errorf("%w: runner and lock are required", ErrInvalidConfig)
	}
	t := &SyncTrigger{
		config: cfg,
		runner: runner,
		lock:   lock,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Start starts the periodic loop
func (t *SyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Duration("check_interval", t.config.CheckInterval),
		zap.Duration("cycle_timeout", t.config.CycleTimeout),
		zap.String("lock_name", t.config.LockName),
	)
	return nil
}

// Stop cancels the loop and waits for the running cycle to return
func (t *SyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the periodic loop is active
func (t *SyncTrigger) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isRunning
}

// LastReport returns the report of the last completed cycle, or nil
func (t *SyncTrigger) LastReport() (*edisync.RunReport, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastReport, t.lastRunAt
}

// RunNow runs one cycle immediately. Without ids it runs the due actions;
// with ids it forces exactly those actions.
func (t *SyncTrigger) RunNow(ctx context.Context, actionIDs ...uuid.UUID) (*edisync.RunReport, error) {
	return t.runLocked(ctx, func(ctx context.Context) (*edisync.RunReport, error) {
		return t.runner.Run(ctx, actionIDs...)
	})
}

// RunConfigNow forces every action of one config
func (t *SyncTrigger) RunConfigNow(ctx context.Context, configID uuid.UUID) (*edisync.RunReport, error) {
	return t.runLocked(ctx, func(ctx context.Context) (*edisync.RunReport, error) {
		return t.runner.RunConfig(ctx, configID)
	})
}

func (t *SyncTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	if t.config.RunOnStart {
		t.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *SyncTrigger) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, err := t.RunNow(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCycleInProgress):
		t.logger.Debug("Skipping sync cycle, lock held elsewhere", zap.String("lock_name", t.config.LockName))
	default:
		t.logger.Error("Scheduled sync cycle failed", zap.Error(err))
	}
}

func (t *SyncTrigger) runLocked(ctx context.Context, run func(context.Context) (*edisync.RunReport, error)) (*edisync.RunReport, error) {
	acquired, err := t.lock.Acquire(ctx, t.config.LockName, t.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire cycle lock: %w", err)
	}
	if !acquired {
		return nil, ErrCycleInProgress
	}
	defer func() {
		// release even when ctx was cancelled mid-cycle
		if err := t.lock.Release(context.WithoutCancel(ctx), t.config.LockName); err != nil {
			t.logger.Warn("Failed to release cycle lock", zap.String("lock_name", t.config.LockName), zap.Error(err))
		}
	}()

	cycleCtx, cancel := context.WithTimeout(ctx, t.config.CycleTimeout)
	defer cancel()

	report, err := run(cycleCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCycleFailed, err)
	}

	t.mu.Lock()
	t.lastReport = report
	t.lastRunAt = report.StartedAt
	t.mu.Unlock()
	return report, nil
}
