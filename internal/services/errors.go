package services

import "errors"

var (
	// ErrValidation is returned when request input is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrUserNotFound is returned when an authenticated identity no longer
	// resolves to a stored user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientCredits is returned when the user has no credits left.
	ErrInsufficientCredits = errors.New("no credits left")

	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned when a username/password pair does
	// not match a stored user.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
