package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindNoQuestionsAvailable Kind = "no_questions_available"
	KindInvalidState         Kind = "invalid_state"
	KindInvalidArgument      Kind = "invalid_argument"
	KindPersistence          Kind = "persistence"
	KindInternal             Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, nil, format, args...)
}

func NoQuestionsAvailable(format string, args ...any) *Error {
	return New(KindNoQuestionsAvailable, nil, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return New(KindInvalidState, nil, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, nil, format, args...)
}

func Persistence(err error, format string, args ...any) *Error {
	return New(KindPersistence, err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
