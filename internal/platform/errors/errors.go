package apperrors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrDuplicateParticipant = errors.New("participant already exists")
	ErrSessionActive        = errors.New("session is active")
)
