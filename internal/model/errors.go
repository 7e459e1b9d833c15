package model

import "errors"

// Common errors used across the application
var (
	// Credential errors
	ErrDuplicateUsername = errors.New("username already taken")
	ErrUnknownUsername   = errors.New("unknown username")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrAccountNotFound   = errors.New("account not found")

	// Session errors
	ErrInvalidToken  = errors.New("invalid token")
	ErrAlreadyOnline = errors.New("account already has a live connection")

	// Protocol errors
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrAlreadyInRoom          = errors.New("already in room")
	ErrNotInRoom              = errors.New("not in room")
	ErrCannotLeaveDefaultRoom = errors.New("cannot leave the default room")
	ErrInvalidMessage         = errors.New("invalid message")
)
