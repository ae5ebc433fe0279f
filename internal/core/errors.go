package core

import (
	"errors"

	"github.com/baxromumarov/job-sentinel/internal/ai"
	"github.com/baxromumarov/job-sentinel/internal/observability"
)

var (
	// ErrExternalService matches any failure of the classification pipeline.
	ErrExternalService = ai.ErrExternalService

	ErrPersistence   = errors.New("persistence error")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrProfileBusy   = errors.New("profile synthesis already in progress")
	ErrSourceChanged = errors.New("source text changed during profile synthesis")
)

// Error attaches a sentinel kind to a message so callers can errors.Is on the kind.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.kind.Error() + ": " + e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

func (e *Error) Kind() string {
	switch e.kind {
	case ErrValidation, ErrNotFound:
		return observability.ErrorValidation
	case ErrPersistence:
		return observability.ErrorStore
	default:
		return observability.ErrorUnknown
	}
}
