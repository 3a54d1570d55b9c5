package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound   = errors.New("record not found")
	ErrInvalidRow = errors.New("invalid storage row")
)
