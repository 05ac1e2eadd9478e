package edisync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp/edisync/internal/domain/edi"
)

// MockHandler is a mock implementation of DocumentHandler
type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) Code() edi.DocumentCode {
	args := m.Called()
	return args.Get(0).(edi.DocumentCode)
}

func (m *MockHandler) Direction() Direction {
	args := m.Called()
	return args.Get(0).(Direction)
}

func (m *MockHandler) Handle(ctx context.Context, run *ActionRun) (Outcome, error) {
	args := m.Called(ctx, run)
	return args.Get(0).(Outcome), args.Error(1)
}

func newMockHandler(code edi.DocumentCode, dir Direction) *MockHandler {
	h := new(MockHandler)
	h.On("Code").Return(code).Maybe()
	h.On("Direction").Return(dir).Maybe()
	return h
}

func TestRegistry(t *testing.T) {
	t.Run("resolves registered handlers", func(t *testing.T) {
		exporter := NewSaleOrderExporter(newFakeRemote(), newCodec(), DefaultExportConfig())
		importer := NewSaleOrderImporter(newFakeRemote(), newCodec())

		r, err := NewRegistry(exporter, importer)
		require.NoError(t, err)

		h, ok := r.Resolve(edi.DocumentCodeExportSaleOrder)
		require.True(t, ok)
		assert.Same(t, exporter, h)

		h, ok = r.Resolve(edi.DocumentCodeImportSaleOrder)
		require.True(t, ok)
		assert.Same(t, importer, h)

		assert.Equal(t, []edi.DocumentCode{
			edi.DocumentCodeExportSaleOrder,
			edi.DocumentCodeImportSaleOrder,
		}, r.Codes())
	})

	t.Run("unknown code", func(t *testing.T) {
		r, err := NewRegistry()
		require.NoError(t, err)
		_, ok := r.Resolve("unknown_document")
		assert.False(t, ok)
		assert.Empty(t, r.Codes())
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		_, err := NewRegistry(
			newMockHandler("dup", DirectionExport),
			newMockHandler("dup", DirectionImport),
		)
		assert.ErrorIs(t, err, ErrDuplicateHandler)
	})

	t.Run("rejects invalid handlers", func(t *testing.T) {
		r, err := NewRegistry()
		require.NoError(t, err)
		assert.ErrorIs(t, r.Register(nil), ErrInvalidHandler)
		assert.ErrorIs(t, r.Register(newMockHandler("", DirectionExport)), ErrInvalidHandler)
	})
}

func TestDirection(t *testing.T) {
	assert.True(t, DirectionExport.Accepts(edi.OpTypeExport))
	assert.False(t, DirectionExport.Accepts(edi.OpTypeImport))
	assert.True(t, DirectionImport.Accepts(edi.OpTypeImport))
	assert.True(t, DirectionImport.Accepts(edi.OpTypeImportMove))
	assert.False(t, DirectionImport.Accepts(edi.OpTypeExport))
	assert.False(t, Direction("sideways").Accepts(edi.OpTypeExport))

	assert.Equal(t, "EXPORT Failed", DirectionExport.FailureTitle())
	assert.Equal(t, "IMPORT Failed", DirectionImport.FailureTitle())
}
