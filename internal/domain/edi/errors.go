package edi

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps every connect, change-dir, upload or download failure
	ErrTransport = errors.New("edi: transport failure")

	// ErrUnsupportedProtocol is returned when no transport strategy exists for a protocol
	ErrUnsupportedProtocol = errors.New("edi: unsupported transport protocol")

	// ErrInvalidConfig is returned when a sync config fails validation
	ErrInvalidConfig = errors.New("edi: invalid sync config")

	// ErrInvalidOpType is returned for an unknown document operation type
	ErrInvalidOpType = errors.New("edi: invalid operation type")

	// ErrWatermarkRegression is returned when a sync watermark would move backwards
	ErrWatermarkRegression = errors.New("edi: sync watermark cannot move backwards")

	// ErrActionNotFound is returned when a sync action does not exist
	ErrActionNotFound = errors.New("edi: sync action not found")

	// ErrConfigNotFound is returned when a sync config does not exist
	ErrConfigNotFound = errors.New("edi: sync config not found")

	// ErrDocumentTypeNotFound is returned when a document type does not exist
	ErrDocumentTypeNotFound = errors.New("edi: document type not found")

	// ErrConfigInactive is returned when an operation needs an active config
	ErrConfigInactive = errors.New("edi: sync config is inactive")
)

// ActionFailure is an action-level failure. Title becomes the title of the
// audit log entry written once the action's unit of work has been rolled back.
type ActionFailure struct {
	Title string
	Err   error
}

// Error implements the error interface
func (e *ActionFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Title, e.Err)
}

// Unwrap returns the underlying cause
func (e *ActionFailure) Unwrap() error {
	return e.Err
}

// NewActionFailure wraps err with a log title
func NewActionFailure(title string, err error) *ActionFailure {
	return &ActionFailure{Title: title, Err: err}
}

// NewTransportFailure wraps a remote I/O error so that errors.Is(err, ErrTransport) holds
func NewTransportFailure(title string, err error) *ActionFailure {
	return &ActionFailure{Title: title, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
}

// IsTransportError reports whether err originates from the transport layer
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}
