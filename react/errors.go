package react

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the class of a ParseError. Use errors.Is to
// classify an error returned by Parser.Parse.
var (
	ErrNoAction           = errors.New("no action found")
	ErrMalformedArguments = errors.New("malformed arguments")
	ErrAmbiguousOutput    = errors.New("ambiguous output")
)

// ParseErrorKind classifies why model output could not be parsed.
type ParseErrorKind int

const (
	NoAction ParseErrorKind = iota + 1
	MalformedArguments
	Ambiguous
)

func (k ParseErrorKind) String() string {
	switch k {
	case NoAction:
		return "no_action"
	case MalformedArguments:
		return "malformed_arguments"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

func (k ParseErrorKind) sentinel() error {
	switch k {
	case MalformedArguments:
		return ErrMalformedArguments
	case Ambiguous:
		return ErrAmbiguousOutput
	default:
		return ErrNoAction
	}
}

// ParseError reports model output that does not follow the reasoning grammar.
type ParseError struct {
	Kind   ParseErrorKind
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind.sentinel(), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

func parseErr(kind ParseErrorKind, reason string, err error) *ParseError {
	return &ParseError{Kind: kind, Reason: reason, Err: err}
}
