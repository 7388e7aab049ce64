package shared

import "errors"

// Errors shared across the auth and session plumbing. Domain packages
// declare their own sentinels.
var (
	// ErrNotFound indicates a missing user or session row.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials collapses unknown-account and bad-password
	// login failures into one answer.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when a mutating request carries no token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the token fails verification.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
