package event

import "errors"

var (
	// ErrEventNotFound indicates no event document exists for the given id.
	ErrEventNotFound = errors.New("event not found")
	// ErrSignupNotFound indicates no signup matched (eventId, userId).
	ErrSignupNotFound = errors.New("signup not found")
	// ErrEventFull indicates the capacity check rejected a signup.
	ErrEventFull = errors.New("event is full")
)
