package apperrors

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnavailable
	KindUnauthorized
	KindAlreadyReturned
	KindValidation
)

// Error carries a machine-checkable kind plus a human-readable message.
// HTTP status mapping is left to the transport layer.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Unavailable(message string) *Error {
	return &Error{Kind: KindUnavailable, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func AlreadyReturned(message string) *Error {
	return &Error{Kind: KindAlreadyReturned, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the classification of err, KindInternal for anything
// that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
