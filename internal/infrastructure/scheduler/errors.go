package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrCycleInProgress is returned when another holder owns the cycle lock
	ErrCycleInProgress = errors.New("sync cycle already in progress")

	// ErrCycleFailed is returned when the dispatcher could not select actions
	ErrCycleFailed = errors.New("sync cycle failed")
)
