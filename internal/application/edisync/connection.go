package edisync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/domain/shared"
)

// ConnectionTester checks that a config's remote endpoint accepts a session
type ConnectionTester struct {
	configs edi.SyncConfigRepository
	gateway edi.TransportGateway
	logger  *zap.Logger
}

// NewConnectionTester creates a connection tester
func NewConnectionTester(configs edi.SyncConfigRepository, gateway edi.TransportGateway, logger *zap.Logger) *ConnectionTester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionTester{configs: configs, gateway: gateway, logger: logger}
}

// Test connects to the config's endpoint and closes the session again
func (t *ConnectionTester) Test(ctx context.Context, configID uuid.UUID) error {
	cfg, err := t.configs.FindByID(ctx, configID)
	if errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: %s", edi.ErrConfigNotFound, configID)
	}
	if err != nil {
		return err
	}

	endpoint := cfg.Endpoint()
	session, err := t.gateway.Connect(ctx, endpoint)
	if err != nil {
		t.logger.Warn("Connection test failed",
			zap.String("config_id", configID.String()),
			zap.String("endpoint", endpoint.String()),
			zap.Error(err))
		return fmt.Errorf("connection test failed: %w", err)
	}
	if err := session.Close(); err != nil {
		t.logger.Warn("Failed to close test session", zap.Error(err))
	}

	t.logger.Info("Connection test succeeded",
		zap.String("config_id", configID.String()),
		zap.String("endpoint", endpoint.String()))
	return nil
}
