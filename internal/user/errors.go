package user

import "errors"

var (
	// ErrNotFound indicates no user document exists for the given uid.
	ErrNotFound = errors.New("user not found")
	// ErrConflict indicates the user document already exists.
	ErrConflict = errors.New("user already exists")
)
