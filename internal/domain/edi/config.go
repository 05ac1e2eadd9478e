package edi

import (
	"fmt"
	"strings"

	"github.com/erp/edisync/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// Protocol is the wire protocol used to reach a partner file server
type Protocol string

const (
	ProtocolFTP  Protocol = "ftp"
	ProtocolSFTP Protocol = "sftp"
)

// IsValid checks if the protocol is known
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolFTP, ProtocolSFTP:
		return true
	}
	return false
}

// String returns the string representation
func (p Protocol) String() string {
	return string(p)
}

// DefaultPort returns the well-known port of the protocol
func (p Protocol) DefaultPort() int {
	if p == ProtocolFTP {
		return 21
	}
	return 22
}

// ParseProtocol parses a protocol name case-insensitively
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProtocol, s)
	}
	return p, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SyncConfig describes one partner file server and owns zero or more sync actions.
// It is read-only for the duration of a dispatcher cycle.
type SyncConfig struct {
	shared.BaseEntity
	Name     string   `validate:"required,max=128"`
	Active   bool
	Sequence int      `validate:"gte=0"`
	Host     string   `validate:"required,max=255"`
	Port     int      `validate:"gte=0,lte=65535"`
	Protocol Protocol `validate:"required,oneof=ftp sftp"`
	Login    string   `validate:"required,max=128"`
	Password string
	BasePath string   `validate:"max=512"`
	Note     string
}

// NewSyncConfig creates an active config. A zero port falls back to the protocol default.
func NewSyncConfig(name, host string, port int, protocol Protocol, login, password string) (*SyncConfig, error) {
	cfg := &SyncConfig{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Active:     true,
		Sequence:   10,
		Host:       strings.TrimSpace(host),
		Port:       port,
		Protocol:   protocol,
		Login:      login,
		Password:   password,
		BasePath:   "/",
	}
	if cfg.Port == 0 {
		cfg.Port = protocol.DefaultPort()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config fields
func (c *SyncConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Endpoint returns the transport endpoint described by this config
func (c *SyncConfig) Endpoint() Endpoint {
	port := c.Port
	if port == 0 {
		port = c.Protocol.DefaultPort()
	}
	return Endpoint{
		Protocol: c.Protocol,
		Host:     c.Host,
		Port:     port,
		Login:    c.Login,
		Password: c.Password,
		BasePath: c.BasePath,
	}
}
