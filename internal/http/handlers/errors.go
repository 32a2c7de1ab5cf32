// Package handlers defines the machine-readable error codes returned in the
// `code` field of every error envelope.
//
// Codes are lowercase snake_case. Generic ones mirror the HTTP status;
// validation_failed is specific to movie payloads. Clients
// should branch on the code, never on the message text.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeValidation = "validation_failed"
)

// Fixed client-facing messages.
const (
	msgMovieNotFound = "Movie not found"
	msgMovieDeleted  = "Movie deleted"
	msgInvalidMovie  = "Invalid movie payload"
)
