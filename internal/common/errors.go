package common

import "errors"

var (
	// ErrorNotFound is returned when a named object (a snapshot) does not
	// exist.
	ErrorNotFound = errors.New("not found")

	// ErrInvalidToken reports a malformed API token or one without a
	// principal claim.
	ErrInvalidToken = errors.New("invalid token")
)
