package edisync

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/infrastructure/logger"
	"github.com/erp/edisync/internal/infrastructure/telemetry"
)

// ActionStatus is the terminal state of one action in one cycle
type ActionStatus string

const (
	ActionStatusSucceeded ActionStatus = "succeeded"
	ActionStatusFailed    ActionStatus = "failed"
	ActionStatusSkipped   ActionStatus = "skipped"
	// ActionStatusIncomplete means the handler returned without a success signal;
	// its writes are committed but the watermark stays put
	ActionStatusIncomplete ActionStatus = "incomplete"
)

// ActionResult records how one action ended
type ActionResult struct {
	ActionID uuid.UUID
	Code     edi.DocumentCode
	Status   ActionStatus
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// RunReport is the result of one dispatcher cycle
type RunReport struct {
	StartedAt time.Time
	Results   []ActionResult
}

// Count returns the number of actions that ended in status
func (r *RunReport) Count(status ActionStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Dispatcher runs due sync actions one after another. Each action runs in its
// own transaction scope; a failing action is rolled back and the cycle goes on.
type Dispatcher struct {
	registry      *Registry
	scope         TransactionScope
	actions       edi.SyncActionRepository
	metrics       MetricsRecorder
	logger        *zap.Logger
	clock         func() time.Time
	actionTimeout time.Duration
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger
func WithDispatcherLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithDispatcherMetrics sets the metrics recorder
func WithDispatcherMetrics(m MetricsRecorder) DispatcherOption {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithClock overrides time.Now
func WithClock(clock func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithActionTimeout bounds each action (zero disables the bound)
func WithActionTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.actionTimeout = timeout
	}
}

// NewDispatcher creates a dispatcher
func NewDispatcher(registry *Registry, scope TransactionScope, actions edi.SyncActionRepository, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		scope:    scope,
		actions:  actions,
		metrics:  nopMetrics{},
		logger:   zap.NewNop(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one cycle. Without ids it selects the due actions; with ids it
// runs exactly those actions whatever their watermark.
// The returned error only reports a failure to select actions.
func (d *Dispatcher) Run(ctx context.Context, actionIDs ...uuid.UUID) (*RunReport, error) {
	now := d.clock()

	var (
		actions []edi.SyncAction
		err     error
	)
	if len(actionIDs) > 0 {
		actions, err = d.actions.FindByIDs(ctx, actionIDs)
		if err == nil {
			d.warnMissing(actionIDs, actions)
		}
	} else {
		actions, err = d.actions.FindDue(ctx, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select sync actions: %w", err)
	}

	return d.runActions(ctx, now, actions), nil
}

// RunConfig forces every action of one config
func (d *Dispatcher) RunConfig(ctx context.Context, configID uuid.UUID) (*RunReport, error) {
	actions, err := d.actions.FindByConfig(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions of config %s: %w", configID, err)
	}
	return d.runActions(ctx, d.clock(), actions), nil
}

func (d *Dispatcher) runActions(ctx context.Context, now time.Time, actions []edi.SyncAction) *RunReport {
	slices.SortStableFunc(actions, func(a, b edi.SyncAction) int {
		if c := cmp.Compare(a.Sequence, b.Sequence); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	report := &RunReport{StartedAt: now, Results: make([]ActionResult, 0, len(actions))}
	d.logger.Info("Starting sync cycle", zap.Int("actions", len(actions)))

	for i := range actions {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("Sync cycle cancelled, remaining actions not started",
				zap.Int("remaining", len(actions)-i),
				zap.Error(err))
			break
		}
		report.Results = append(report.Results, d.runAction(ctx, &actions[i], now))
	}

	d.logger.Info("Sync cycle finished",
		zap.Int("succeeded", report.Count(ActionStatusSucceeded)),
		zap.Int("failed", report.Count(ActionStatusFailed)),
		zap.Int("skipped", report.Count(ActionStatusSkipped)),
		zap.Int("incomplete", report.Count(ActionStatusIncomplete)))
	return report
}

func (d *Dispatcher) runAction(ctx context.Context, action *edi.SyncAction, now time.Time) (result ActionResult) {
	start := time.Now()
	result = ActionResult{ActionID: action.ID, Code: action.Code()}

	ctx, span := telemetry.StartServiceSpan(ctx, "Dispatcher", "RunAction")
	defer span.End()
	telemetry.SetAttributes(span,
		"action_id", action.ID.String(),
		"doc_code", string(action.Code()),
		"op_type", string(action.OpType()))

	ctx, log := logger.WithConfigID(ctx, d.logger, action.ConfigID.String())
	ctx, log = logger.WithActionID(ctx, log, action.ID.String())
	log = log.With(zap.String("doc_code", string(action.Code())))

	defer func() {
		result.Duration = time.Since(start)
		d.metrics.RecordAction(ctx, result.Code, result.Status, result.Duration)
		telemetry.SetAttributes(span, "status", string(result.Status))
	}()

	if !action.IsEnabled() {
		log.Info("Skipping inactive sync action")
		result.Status = ActionStatusSkipped
		return result
	}

	handler, ok := d.registry.Resolve(action.Code())
	if !ok {
		log.Warn("No handler registered for document code, skipping action")
		result.Status = ActionStatusSkipped
		return result
	}
	if !handler.Direction().Accepts(action.OpType()) {
		log.Warn("Handler direction does not match action operation type, skipping action",
			zap.String("direction", string(handler.Direction())),
			zap.String("op_type", string(action.OpType())))
		result.Status = ActionStatusSkipped
		return result
	}

	log.Info("Running sync action")
	outcome, err := d.execute(ctx, action, handler, now, log)
	result.Outcome = outcome

	if err != nil {
		result.Status = ActionStatusFailed
		result.Err = err
		telemetry.RecordError(span, err)
		log.Error("Sync action failed, changes rolled back", zap.Error(err))
		d.writeFailureLog(ctx, action, handler, err, log)
		return result
	}

	if !outcome.Succeeded {
		log.Info("Sync action finished without success signal")
		result.Status = ActionStatusIncomplete
		return result
	}

	telemetry.SetOK(span)
	log.Info("Sync action succeeded", zap.Int("processed", outcome.Processed))
	result.Status = ActionStatusSucceeded
	return result
}

// execute runs the handler inside the action's transaction scope and advances
// the watermark on success. A handler panic is turned into an error so the
// scope rolls back.
func (d *Dispatcher) execute(ctx context.Context, action *edi.SyncAction, handler DocumentHandler, now time.Time, log *zap.Logger) (Outcome, error) {
	// Caller cancellation never reaches a running action, only the action timeout does
	ctx = context.WithoutCancel(ctx)
	if d.actionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.actionTimeout)
		defer cancel()
	}

	var outcome Outcome
	err := d.scope.Execute(ctx, func(repos TransactionalRepositories) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, r, debug.Stack())
			}
		}()

		run := &ActionRun{
			Action: action,
			Now:    now,
			Repos:  repos,
			Log:    NewLogSink(repos.LogRepo(), log).ForAction(action),
		}
		outcome, err = handler.Handle(ctx, run)
		if err != nil {
			return err
		}
		if outcome.Succeeded {
			return repos.ActionRepo().UpdateLastSyncDate(ctx, action.ID, now)
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// writeFailureLog records the failure in a fresh unit of work, after the
// action's own scope has been rolled back
func (d *Dispatcher) writeFailureLog(ctx context.Context, action *edi.SyncAction, handler DocumentHandler, cause error, log *zap.Logger) {
	title, body := handler.Direction().FailureTitle(), cause.Error()
	var failure *edi.ActionFailure
	if errors.As(cause, &failure) {
		title, body = failure.Title, failure.Err.Error()
	}

	ctx = context.WithoutCancel(ctx)
	err := d.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		NewLogSink(repos.LogRepo(), log).ForAction(action).Write(ctx, title, body)
		return nil
	})
	if err != nil {
		log.Error("Failed to write failure log entry", zap.Error(err))
	}
}

func (d *Dispatcher) warnMissing(requested []uuid.UUID, found []edi.SyncAction) {
	seen := make(map[uuid.UUID]struct{}, len(found))
	for _, a := range found {
		seen[a.ID] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := seen[id]; !ok {
			d.logger.Warn("Requested sync action not found", zap.String("action_id", id.String()))
		}
	}
}
