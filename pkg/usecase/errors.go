package usecase

import "errors"

var (
	// ErrUnauthorized is returned when a request carries no valid credential
	ErrUnauthorized = errors.New("unauthorised")

	// ErrNoteAccessDenied is returned when a user addresses a note owned by someone else
	ErrNoteAccessDenied = errors.New("access denied to note")
)
