package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error for callers and the HTTP layer.
type Kind string

const (
	KindConfig       Kind = "CONFIG_INVALID"
	KindIngestion    Kind = "INGESTION_FAILED"
	KindQuery        Kind = "QUERY_FAILED"
	KindNotFound     Kind = "NOT_FOUND"
	KindInvalidInput Kind = "INVALID_INPUT"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error is a structured application error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to cause. A nil cause yields nil.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Config reports an invalid configuration value or combination.
func Config(format string, args ...any) *Error { return New(KindConfig, format, args...) }

// Ingestion reports an unsupported or corrupt input file.
func Ingestion(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindIngestion, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Query wraps an executor failure. The engine message is kept verbatim.
func Query(cause error) *Error {
	return &Error{Kind: KindQuery, Cause: cause}
}

// NotFound reports a missing resource such as a session or column.
func NotFound(resource string) *Error {
	return New(KindNotFound, "%s not found", resource)
}

// InvalidInput reports a malformed request.
func InvalidInput(format string, args ...any) *Error { return New(KindInvalidInput, format, args...) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
