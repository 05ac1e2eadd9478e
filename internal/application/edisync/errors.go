package edisync

import "errors"

var (
	// ErrInvalidHandler is returned when registering a nil or unnamed handler
	ErrInvalidHandler = errors.New("edisync: invalid document handler")

	// ErrDuplicateHandler is returned when a document code is registered twice
	ErrDuplicateHandler = errors.New("edisync: document handler already registered")

	// ErrHandlerPanic wraps a panic recovered from a document handler
	ErrHandlerPanic = errors.New("edisync: document handler panicked")

	// ErrMissingConfig is returned when an action has no sync config loaded
	ErrMissingConfig = errors.New("edisync: sync action has no config")
)
