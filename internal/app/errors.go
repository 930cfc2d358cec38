package app

import "errors"

// Sentinel kinds for controller errors.
var (
	ErrNoSource      = errors.New("no event source configured")
	ErrNotStarted    = errors.New("service not started")
	ErrNotIdle       = errors.New("session already in progress")
	ErrNotResettable = errors.New("no session to reset")
)
