// Package common defines shared constants and sentinel errors used across
// the BookmarkVault client layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// Session errors.
	ErrNoSession    = errors.New("no authenticated session")
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors, raised before any network call.
	ErrEmptyURL   = errors.New("please enter a URL")
	ErrInvalidURL = errors.New("please enter a valid URL (e.g. https://example.com)")
	ErrEmptyTitle = errors.New("please enter a title for this bookmark")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
