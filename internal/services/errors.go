// Package services defines the business logic for movies. This file
// centralizes service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Validation failures are not listed here: they are
// returned as *validate.Error, which carries every failing field.
package services

import "errors"

// Movie-related errors.
var (
	// ErrMovieNotFound indicates that no movie has the requested id.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrReplayConflict is returned when an idempotency key refers to a movie
	// that no longer exists, so the original response cannot be replayed.
	ErrReplayConflict = errors.New("idempotency key refers to a deleted movie")
)
