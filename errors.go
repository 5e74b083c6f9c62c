package seaward

import "errors"

// Predefined error types for robust error handling
var (
	// ErrCancelled is returned when the operator interrupts discovery before
	// confirming a device. It is fatal to the run.
	ErrCancelled = errors.New("cancelled by operator")

	// ErrNoDevicePath is returned when a confirmed signature carries no
	// usable device node path.
	ErrNoDevicePath = errors.New("selected device has no path")
)
