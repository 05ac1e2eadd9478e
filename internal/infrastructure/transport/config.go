package transport

import (
	"errors"
	"time"
)

// Errors for transport configuration
var (
	ErrConfigInvalidTimeout = errors.New("transport: dial timeout must be positive")
)

// Config holds settings shared by every transport strategy
type Config struct {
	// DialTimeout bounds TCP connect plus protocol handshake
	DialTimeout time.Duration
	// KnownHostsFile enables SSH host key verification when set
	KnownHostsFile string
	// DisableEPSV forces passive mode without EPSV for FTP servers that reject it
	DisableEPSV bool
}

// DefaultConfig returns the transport defaults
func DefaultConfig() Config {
	return Config{
		DialTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.DialTimeout <= 0 {
		return ErrConfigInvalidTimeout
	}
	return nil
}
