package memory

import "errors"

// Sentinel errors for store operations.
var (
	ErrEmptyKey       = errors.New("empty session key")
	ErrLoadFailed     = errors.New("load failed")
	ErrSaveFailed     = errors.New("save failed")
	ErrDeleteFailed   = errors.New("delete failed")
	ErrUnknownBackend = errors.New("unknown memory backend")
)
