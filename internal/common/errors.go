// Package common defines shared constants and sentinel errors used across
// Parley server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Access-control errors: the caller is authenticated but the row-level
	// rules deny the operation.
	ErrorForbidden = errors.New("forbidden")

	// Validation errors.
	ErrorValidation = errors.New("validation error")

	// The target of the operation exists but cannot take part right now,
	// e.g. a call invite to a user with no live feed session.
	ErrorUnavailable = errors.New("unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
