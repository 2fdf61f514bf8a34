// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrSlugConflict is returned when a product's uri_id collides with an
	// existing record (unique constraint on the slug column).
	ErrSlugConflict = errors.New("uri_id already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionInvalid = errors.New("session invalid or expired")
)
