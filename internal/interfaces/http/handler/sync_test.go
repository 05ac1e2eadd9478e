package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp/edisync/internal/application/edisync"
	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/infrastructure/scheduler"
	"github.com/erp/edisync/internal/interfaces/http/dto"
	"github.com/erp/edisync/internal/interfaces/http/middleware"
)

// MockSyncRunner implements SyncRunner for testing
type MockSyncRunner struct {
	mock.Mock
}

func (m *MockSyncRunner) RunNow(ctx context.Context, actionIDs ...uuid.UUID) (*edisync.RunReport, error) {
	args := m.Called(ctx, actionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*edisync.RunReport), args.Error(1)
}

func (m *MockSyncRunner) RunConfigNow(ctx context.Context, configID uuid.UUID) (*edisync.RunReport, error) {
	args := m.Called(ctx, configID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*edisync.RunReport), args.Error(1)
}

func (m *MockSyncRunner) LastReport() (*edisync.RunReport, time.Time) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, time.Time{}
	}
	return args.Get(0).(*edisync.RunReport), args.Get(1).(time.Time)
}

// MockConnectionTester implements ConnectionTester for testing
type MockConnectionTester struct {
	mock.Mock
}

func (m *MockConnectionTester) Test(ctx context.Context, configID uuid.UUID) error {
	return m.Called(ctx, configID).Error(0)
}

// ----- Test Helpers -----

func setupSyncRouter(runner SyncRunner, tester ConnectionTester) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	NewSyncHandler(runner, tester).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func sampleReport() *edisync.RunReport {
	return &edisync.RunReport{
		StartedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Results: []edisync.ActionResult{
			{
				ActionID: uuid.New(),
				Code:     edi.DocumentCodeExportSaleOrder,
				Status:   edisync.ActionStatusSucceeded,
				Outcome:  edisync.Succeeded(2, "2 orders exported"),
				Duration: 40 * time.Millisecond,
			},
			{
				ActionID: uuid.New(),
				Code:     edi.DocumentCodeImportSaleOrder,
				Status:   edisync.ActionStatusFailed,
				Err:      errors.New("remote folder missing"),
			},
		},
	}
}

func serve(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func emptyIDs() any {
	return mock.MatchedBy(func(ids []uuid.UUID) bool { return len(ids) == 0 })
}

// ----- Tests -----

func TestSyncHandler_RunSync(t *testing.T) {
	t.Run("runs due actions without a body", func(t *testing.T) {
		runner := new(MockSyncRunner)
		runner.On("RunNow", mock.Anything, emptyIDs()).Return(sampleReport(), nil)

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodPost, "/api/v1/edi/sync/run", "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(1), data["succeeded"])
		assert.Equal(t, float64(1), data["failed"])
		results := data["results"].([]any)
		require.Len(t, results, 2)
		assert.Equal(t, "remote folder missing", results[1].(map[string]any)["error"])
		runner.AssertExpectations(t)
	})

	t.Run("forces listed actions", func(t *testing.T) {
		id := uuid.New()
		runner := new(MockSyncRunner)
		runner.On("RunNow", mock.Anything, []uuid.UUID{id}).Return(&edisync.RunReport{}, nil)

		body := fmt.Sprintf(`{"action_ids":[%q]}`, id)
		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodPost, "/api/v1/edi/sync/run", body)

		assert.Equal(t, http.StatusOK, w.Code)
		runner.AssertExpectations(t)
	})

	t.Run("rejects invalid action ids", func(t *testing.T) {
		runner := new(MockSyncRunner)

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodPost, "/api/v1/edi/sync/run", `{"action_ids":["x"]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
		runner.AssertNotCalled(t, "RunNow", mock.Anything, mock.Anything)
	})

	t.Run("reports a held lock as conflict", func(t *testing.T) {
		runner := new(MockSyncRunner)
		runner.On("RunNow", mock.Anything, emptyIDs()).Return(nil, scheduler.ErrCycleInProgress)

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodPost, "/api/v1/edi/sync/run", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeCycleInProgress, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("reports a failed cycle", func(t *testing.T) {
		runner := new(MockSyncRunner)
		runner.On("RunNow", mock.Anything, emptyIDs()).
			Return(nil, fmt.Errorf("%w: %w", scheduler.ErrCycleFailed, errors.New("db down")))

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodPost, "/api/v1/edi/sync/run", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeCycleFailed, decodeResponse(t, w).Error.Code)
	})

	t.Run("reports an unreachable lock as unavailable", func(t *testing.T) {
		runner := new(MockSyncRunner)
		runner.On("RunNow", mock.Anything, emptyIDs()).Return(nil, errors.New("failed to acquire cycle lock"))

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodPost, "/api/v1/edi/sync/run", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSyncHandler_SyncConfig(t *testing.T) {
	t.Run("forces the config", func(t *testing.T) {
		configID := uuid.New()
		runner := new(MockSyncRunner)
		runner.On("RunConfigNow", mock.Anything, configID).Return(sampleReport(), nil)

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodPost, "/api/v1/edi/configs/"+configID.String()+"/sync", "")

		assert.Equal(t, http.StatusOK, w.Code)
		runner.AssertExpectations(t)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		runner := new(MockSyncRunner)

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodPost, "/api/v1/edi/configs/nope/sync", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		runner.AssertNotCalled(t, "RunConfigNow", mock.Anything, mock.Anything)
	})
}

func TestSyncHandler_LastRun(t *testing.T) {
	t.Run("no cycle yet", func(t *testing.T) {
		runner := new(MockSyncRunner)
		runner.On("LastReport").Return(nil)

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodGet, "/api/v1/edi/sync/last", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns last report", func(t *testing.T) {
		report := sampleReport()
		runner := new(MockSyncRunner)
		runner.On("LastReport").Return(report, report.StartedAt)

		w := serve(setupSyncRouter(runner, new(MockConnectionTester)), http.MethodGet, "/api/v1/edi/sync/last", "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "2026-03-01T08:00:00Z", data["started_at"])
	})
}

func TestSyncHandler_TestConnection(t *testing.T) {
	configID := uuid.New()
	target := "/api/v1/edi/configs/" + configID.String() + "/test-connection"

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "success", err: nil, wantStatus: http.StatusOK},
		{
			name:       "unknown config",
			err:        fmt.Errorf("%w: %s", edi.ErrConfigNotFound, configID),
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "endpoint refuses",
			err:        errors.New("connection test failed: dial tcp: connection refused"),
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodeConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tester := new(MockConnectionTester)
			tester.On("Test", mock.Anything, configID).Return(tt.err)

			w := serve(setupSyncRouter(new(MockSyncRunner), tester), http.MethodPost, target, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			if tt.wantCode == "" {
				assert.True(t, resp.Success)
				assert.Equal(t, configID.String(), resp.Data.(map[string]any)["config_id"])
				return
			}
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
