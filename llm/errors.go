package llm

import "errors"

// Sentinel errors for client construction.
var (
	ErrUnknownProvider = errors.New("unknown llm provider")
	ErrMissingAPIKey   = errors.New("llm api key not configured")
	ErrMissingModel    = errors.New("llm model not configured")
)
