package edisync

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/edisync/internal/domain/edi"
)

// openActionDir connects to the action's endpoint and changes into its directory
func openActionDir(ctx context.Context, gateway edi.TransportGateway, action *edi.SyncAction) (edi.TransportSession, error) {
	if action.Config == nil {
		return nil, ErrMissingConfig
	}
	session, err := gateway.Connect(ctx, action.Config.Endpoint())
	if err != nil {
		return nil, err
	}
	if err := session.ChangeDir(action.DirPath); err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}

func closeSession(session edi.TransportSession, logger *zap.Logger) {
	if err := session.Close(); err != nil {
		logger.Warn("Failed to close transport session", zap.Error(err))
	}
}
