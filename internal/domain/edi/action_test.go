package edi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAction(t *testing.T) *SyncAction {
	t.Helper()
	cfg, err := NewSyncConfig("partner", "files.example.com", 0, ProtocolSFTP, "edi", "secret")
	require.NoError(t, err)
	docType, err := NewDocumentType("Sale order export", OpTypeExport, DocumentCodeExportSaleOrder)
	require.NoError(t, err)
	return NewSyncAction(cfg, *docType, "/outbound")
}

func TestSyncAction_IsDue(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never synced is due", func(t *testing.T) {
		a := newTestAction(t)
		assert.True(t, a.IsDue(now))
	})

	t.Run("watermark in the past is due", func(t *testing.T) {
		a := newTestAction(t)
		past := now.Add(-time.Minute)
		a.LastSyncDate = &past
		assert.True(t, a.IsDue(now))
	})

	t.Run("watermark equal to now is not due", func(t *testing.T) {
		a := newTestAction(t)
		a.LastSyncDate = &now
		assert.False(t, a.IsDue(now))
	})

	t.Run("inactive action is not due", func(t *testing.T) {
		a := newTestAction(t)
		a.Active = false
		assert.False(t, a.IsDue(now))
	})

	t.Run("inactive config is not due", func(t *testing.T) {
		a := newTestAction(t)
		a.Config.Active = false
		assert.False(t, a.IsDue(now))
	})

	t.Run("inactive document type is not due", func(t *testing.T) {
		a := newTestAction(t)
		a.DocumentType.Active = false
		assert.False(t, a.IsDue(now))
		assert.False(t, a.IsEnabled())
	})
}

func TestSyncAction_MarkSynced(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := newTestAction(t)

	require.NoError(t, a.MarkSynced(now))
	require.NotNil(t, a.LastSyncDate)
	assert.Equal(t, now, *a.LastSyncDate)

	later := now.Add(time.Hour)
	require.NoError(t, a.MarkSynced(later))
	assert.Equal(t, later, *a.LastSyncDate)

	err := a.MarkSynced(now)
	assert.ErrorIs(t, err, ErrWatermarkRegression)
	assert.Equal(t, later, *a.LastSyncDate)
}

func TestSyncAction_MatchFiles(t *testing.T) {
	a := newTestAction(t)
	a.FileExpr = "*.csv"
	a.MaxFiles = 2

	got := a.MatchFiles([]string{"a.csv", "notes.txt", "/in/b.csv", "c.csv"})
	assert.Equal(t, []string{"a.csv", "b.csv"}, got)
	assert.True(t, a.IsGlob())

	a.FileExpr = ""
	assert.Equal(t, DefaultFileExpr, a.FilePattern())
	assert.False(t, a.IsGlob())
}

func TestSyncAction_FileLimit(t *testing.T) {
	a := newTestAction(t)
	a.MaxFiles = 0
	assert.Equal(t, DefaultMaxFiles, a.FileLimit())
	a.MaxFiles = 9
	assert.Equal(t, 9, a.FileLimit())
}

func TestOpType(t *testing.T) {
	tests := []struct {
		op       OpType
		valid    bool
		isImport bool
		isExport bool
	}{
		{OpTypeImport, true, true, false},
		{OpTypeImportMove, true, true, false},
		{OpTypeExport, true, false, true},
		{OpType("sideways"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.op.IsValid())
			assert.Equal(t, tt.isImport, tt.op.IsImport())
			assert.Equal(t, tt.isExport, tt.op.IsExport())
		})
	}

	_, err := NewDocumentType("bad", OpType("sideways"), "x")
	assert.ErrorIs(t, err, ErrInvalidOpType)
}
