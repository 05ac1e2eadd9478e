package edisync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/domain/edi"
)

// LogSink appends audit log entries. Append never fails the caller: a write
// error is reported through zap and dropped.
type LogSink struct {
	repo   edi.LogRepository
	logger *zap.Logger
}

// NewLogSink creates a sink writing to repo
func NewLogSink(repo edi.LogRepository, logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{repo: repo, logger: logger}
}

// Append writes one entry
func (s *LogSink) Append(ctx context.Context, title, body string, actionID, configID *uuid.UUID) {
	entry := edi.NewLogEntry(title, body, actionID, configID)
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append audit log entry",
			zap.String("title", title),
			zap.Error(err))
	}
}

// ForAction binds the sink to an action and its config
func (s *LogSink) ForAction(action *edi.SyncAction) *ActionLog {
	l := &ActionLog{sink: s}
	if action != nil {
		actionID, configID := action.ID, action.ConfigID
		l.actionID = &actionID
		if configID != uuid.Nil {
			l.configID = &configID
		}
	}
	return l
}

// ActionLog writes audit entries tagged with one action
type ActionLog struct {
	sink     *LogSink
	actionID *uuid.UUID
	configID *uuid.UUID
}

// Write appends an entry for the bound action
func (l *ActionLog) Write(ctx context.Context, title, body string) {
	l.sink.Append(ctx, title, body, l.actionID, l.configID)
}
