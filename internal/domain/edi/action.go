package edi

import (
	"path"
	"strings"
	"time"

	"github.com/erp/edisync/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	// DefaultFileExpr is the remote file name used when an action does not set one
	DefaultFileExpr = "orders.csv"
	// DefaultMaxFiles caps how many remote files an import action handles per cycle
	DefaultMaxFiles = 5
)

// SyncAction is one scheduled document exchange against a SyncConfig.
// LastSyncDate is the watermark of the last successful run; it only moves forward.
type SyncAction struct {
	shared.BaseEntity
	ConfigID     uuid.UUID
	Config       *SyncConfig
	DocumentType DocumentType
	Active       bool
	Sequence     int
	DirPath      string
	MoveDirPath  string
	FileExpr     string
	MaxFiles     int
	LastSyncDate *time.Time
}

// NewSyncAction creates an active action that has never run
func NewSyncAction(config *SyncConfig, docType DocumentType, dirPath string) *SyncAction {
	a := &SyncAction{
		BaseEntity:   shared.NewBaseEntity(),
		Config:       config,
		DocumentType: docType,
		Active:       true,
		Sequence:     10,
		DirPath:      dirPath,
		MoveDirPath:  "/",
		FileExpr:     DefaultFileExpr,
		MaxFiles:     DefaultMaxFiles,
	}
	if config != nil {
		a.ConfigID = config.ID
	}
	if a.DirPath == "" {
		a.DirPath = "/"
	}
	return a
}

// OpType returns the direction of the action's document type
func (a *SyncAction) OpType() OpType {
	return a.DocumentType.OpType
}

// Code returns the handler code of the action's document type
func (a *SyncAction) Code() DocumentCode {
	return a.DocumentType.Code
}

// IsEnabled reports whether the action, its document type and its config
// (when loaded) are all active
func (a *SyncAction) IsEnabled() bool {
	if !a.Active || !a.DocumentType.Active {
		return false
	}
	return a.Config == nil || a.Config.Active
}

// IsDue reports whether the action should run in a cycle starting at now
func (a *SyncAction) IsDue(now time.Time) bool {
	if !a.IsEnabled() {
		return false
	}
	return a.LastSyncDate == nil || a.LastSyncDate.Before(now)
}

// MarkSynced advances the watermark. Moving it backwards is rejected.
func (a *SyncAction) MarkSynced(at time.Time) error {
	if a.LastSyncDate != nil && at.Before(*a.LastSyncDate) {
		return ErrWatermarkRegression
	}
	t := at
	a.LastSyncDate = &t
	a.Touch(at)
	return nil
}

// FileLimit returns the per-cycle file cap
func (a *SyncAction) FileLimit() int {
	if a.MaxFiles <= 0 {
		return DefaultMaxFiles
	}
	return a.MaxFiles
}

// FilePattern returns the configured remote file expression
func (a *SyncAction) FilePattern() string {
	if strings.TrimSpace(a.FileExpr) == "" {
		return DefaultFileExpr
	}
	return a.FileExpr
}

// IsGlob reports whether FilePattern needs a directory listing to resolve
func (a *SyncAction) IsGlob() bool {
	return strings.ContainsAny(a.FilePattern(), "*?[")
}

// MatchFiles filters a directory listing down to the files this action handles,
// in listing order and capped at FileLimit.
func (a *SyncAction) MatchFiles(names []string) []string {
	pattern := a.FilePattern()
	matched := make([]string, 0, len(names))
	for _, name := range names {
		base := path.Base(name)
		ok, err := path.Match(pattern, base)
		if err != nil || !ok {
			continue
		}
		matched = append(matched, base)
		if len(matched) == a.FileLimit() {
			break
		}
	}
	return matched
}
