package cache

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called on a running cache.
	ErrAlreadyStarted = errors.New("cache sweep already started")

	// ErrStopped is returned when Start is called after Stop.
	ErrStopped = errors.New("cache is stopped")
)
