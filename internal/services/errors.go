package services

import "errors"

var (
	// ErrInvalidInput is returned when a request is missing required fields
	// or carries out of range values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already registered")

	// ErrBadCredentials is returned when a login does not match a user.
	ErrBadCredentials = errors.New("incorrect username or password")

	// ErrUnauthorized is returned when a token cannot be resolved to a user.
	ErrUnauthorized = errors.New("could not validate credentials")
)
