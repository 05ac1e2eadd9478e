package edi

import (
	"time"

	"github.com/google/uuid"
)

// LogEntry is an append-only audit record of one sync outcome
type LogEntry struct {
	ID        uuid.UUID
	Title     string
	Body      string
	ActionID  *uuid.UUID
	ConfigID  *uuid.UUID
	CreatedAt time.Time
}

// NewLogEntry creates a log entry stamped with the current time
func NewLogEntry(title, body string, actionID, configID *uuid.UUID) *LogEntry {
	return &LogEntry{
		ID:        uuid.New(),
		Title:     title,
		Body:      body,
		ActionID:  actionID,
		ConfigID:  configID,
		CreatedAt: time.Now(),
	}
}
