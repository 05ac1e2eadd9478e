// Package transport implements the remote file exchange strategies (FTP and
// SFTP) behind edi.TransportGateway.
package transport

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/infrastructure/telemetry"
)

// Gateway routes Connect to the strategy registered for the endpoint protocol.
// Strategies are fixed when the gateway is built.
type Gateway struct {
	strategies map[edi.Protocol]edi.TransportGateway
	logger     *zap.Logger
}

// Ensure Gateway implements edi.TransportGateway
var _ edi.TransportGateway = (*Gateway)(nil)

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithStrategy registers (or replaces) the strategy for a protocol
func WithStrategy(protocol edi.Protocol, strategy edi.TransportGateway) GatewayOption {
	return func(g *Gateway) {
		g.strategies[protocol] = strategy
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a gateway with the SFTP and FTP strategies
func NewGateway(cfg Config, opts ...GatewayOption) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Gateway{
		strategies: map[edi.Protocol]edi.TransportGateway{
			edi.ProtocolSFTP: NewSFTPStrategy(cfg),
			edi.ProtocolFTP:  NewFTPStrategy(cfg),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Connect opens a session using the endpoint's protocol strategy
func (g *Gateway) Connect(ctx context.Context, endpoint edi.Endpoint) (edi.TransportSession, error) {
	strategy, ok := g.strategies[endpoint.Protocol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", edi.ErrUnsupportedProtocol, endpoint.Protocol)
	}

	ctx, span := telemetry.StartClientSpan(ctx, "transport.connect", string(endpoint.Protocol), endpoint.Address())
	defer span.End()

	g.logger.Debug("Opening transport session",
		zap.String("endpoint", endpoint.String()),
		zap.String("base_path", endpoint.BasePath))

	session, err := strategy.Connect(ctx, endpoint)
	if err != nil {
		telemetry.RecordError(span, err)
		g.logger.Warn("Transport connect failed",
			zap.String("endpoint", endpoint.String()),
			zap.Error(err))
		return nil, err
	}
	telemetry.SetOK(span)
	return session, nil
}

// wrapErr tags a remote I/O error as a transport failure
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", edi.ErrTransport, op, err)
}
