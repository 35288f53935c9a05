package session

import "errors"

// Sentinel errors for session operations.
var (
	ErrEmptyKey              = errors.New("empty session key")
	ErrConfirmationPending   = errors.New("confirmation already pending")
	ErrNoPendingConfirmation = errors.New("no pending confirmation")
)
