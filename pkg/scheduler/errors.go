package scheduler

import "errors"

var (
	ErrNilConfig       = errors.New("scheduler: config is nil")
	ErrEmptyJobName    = errors.New("scheduler: job name is empty")
	ErrDuplicateJob    = errors.New("scheduler: job already registered")
	ErrAlreadyStarted  = errors.New("scheduler: already started")
	ErrStopTimeout     = errors.New("scheduler: timed out waiting for running jobs")
	ErrInvalidTimezone = errors.New("scheduler: invalid timezone")
)
