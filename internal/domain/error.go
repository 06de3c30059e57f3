package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidDate         = errors.New("invalid date input")
	ErrQueueFull           = errors.New("update queue is full")
	ErrProcessorStopped    = errors.New("update processor is not running")
	ErrScheduleUnavailable = errors.New("schedule source unavailable")
	ErrPortalAuth          = errors.New("portal authentication failed")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrLockHeld            = errors.New("lock is held by another instance")
)
