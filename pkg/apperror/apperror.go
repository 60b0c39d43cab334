// Package apperror carries the error taxonomy shared by usecases and transports.
// Every error has a Kind (how a transport should surface it) and a MessageID
// (the i18n key for the user-facing text).
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindReferenced
	KindUnauthorized
	KindForbidden
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindReferenced:
		return "referenced"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

type Error struct {
	Kind      Kind
	MessageID string
	// Data is passed to the message template, e.g. {"Columns": "sku, unit"}.
	Data   map[string]interface{}
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.MessageID
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, messageID, detail string) *Error {
	return &Error{Kind: kind, MessageID: messageID, Detail: detail}
}

func Wrap(kind Kind, messageID string, err error) *Error {
	return &Error{Kind: kind, MessageID: messageID, Err: err}
}

func Validation(messageID, format string, args ...interface{}) *Error {
	return New(KindValidation, messageID, fmt.Sprintf(format, args...))
}

func NotFound(messageID, format string, args ...interface{}) *Error {
	return New(KindNotFound, messageID, fmt.Sprintf(format, args...))
}

func Conflict(messageID, format string, args ...interface{}) *Error {
	return New(KindConflict, messageID, fmt.Sprintf(format, args...))
}

func Referenced(messageID string, err error) *Error {
	return Wrap(KindReferenced, messageID, err)
}

func Forbidden(messageID, detail string) *Error {
	return New(KindForbidden, messageID, detail)
}

func (e *Error) WithData(data map[string]interface{}) *Error {
	e.Data = data
	return e
}

// KindOf reports the Kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
