package domain

import "errors"

var (
	ErrOutOfRange     = errors.New("history index out of range")
	ErrClockAnomaly   = errors.New("non-monotonic tick interval")
	ErrNotRunning     = errors.New("monitor not running")
	ErrAlreadyRunning = errors.New("monitor already running")
	ErrCaptureClosed  = errors.New("capture source closed")
)
