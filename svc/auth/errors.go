package auth

import "errors"

var (
	// ErrUserNotFound is returned by a UserLoader for unknown principals.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthorized is passed to the error handler when a presented identity cannot be loaded.
	ErrUnauthorized = errors.New("unauthorized")
)
