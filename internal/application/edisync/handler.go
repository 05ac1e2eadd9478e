package edisync

import (
	"context"
	"time"

	"github.com/erp/edisync/internal/domain/edi"
)

// Direction tags a handler as producing or consuming remote files
type Direction string

const (
	DirectionExport Direction = "export"
	DirectionImport Direction = "import"
)

// Accepts reports whether an action with the given op type may run this direction
func (d Direction) Accepts(op edi.OpType) bool {
	switch d {
	case DirectionExport:
		return op.IsExport()
	case DirectionImport:
		return op.IsImport()
	}
	return false
}

// FailureTitle is the audit log title used when an action of this direction fails
// without a more specific title
func (d Direction) FailureTitle() string {
	switch d {
	case DirectionExport:
		return LogTitleExportFailed
	case DirectionImport:
		return LogTitleImportFailed
	}
	return "SYNC Failed"
}

// DocumentHandler runs one document type for one sync action.
//
// Business outcomes (invalid orders, reconciliation mismatches, picking
// failures) are written to run.Log and do not produce an error. An error
// fails the action and rolls back everything written through run.Repos.
type DocumentHandler interface {
	Code() edi.DocumentCode
	Direction() Direction
	Handle(ctx context.Context, run *ActionRun) (Outcome, error)
}

// ActionRun is the per-action input handed to a handler
type ActionRun struct {
	Action *edi.SyncAction
	Now    time.Time
	Repos  TransactionalRepositories
	Log    *ActionLog
}

// Outcome is what a handler reports back. The watermark advances only when
// Succeeded is set.
type Outcome struct {
	Succeeded bool
	// Processed counts exported rows or imported reference groups
	Processed int
	Summary   string
}

// Succeeded builds a successful outcome
func Succeeded(processed int, summary string) Outcome {
	return Outcome{Succeeded: true, Processed: processed, Summary: summary}
}
