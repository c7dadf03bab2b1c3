package core

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrConflict maps the store's unique-constraint violation. It is the
	// single serialization point for concurrent first-time provisioning:
	// the loser of a create race sees this and falls back to sign-in.
	ErrConflict = errors.New("conflict")

	ErrInvalid = errors.New("invalid")
)
