package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrSamePlayer     = errors.New("cannot compare a player with themselves")
	ErrNotStarted     = errors.New("service not started")
	ErrNoSource       = errors.New("no storage source configured")
)
