package data

import "errors"

var (
	// ErrNotFound means the upstream answered but knows nothing about the token.
	ErrNotFound = errors.New("token not found")

	// ErrAllSourcesFailed is returned when no configured source produced a result.
	ErrAllSourcesFailed = errors.New("all sources failed")
)
