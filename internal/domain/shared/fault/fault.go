package fault

import (
	"errors"
	"fmt"
)

// Kind is a machine-distinguishable failure category. Handlers map kinds
// to HTTP statuses in one place instead of string-matching error text.
type Kind string

const (
	MissingField     Kind = "missing_field"
	NotFound         Kind = "not_found"
	InvalidOperation Kind = "invalid_operation"
	Unavailable      Kind = "unavailable"
	InvalidRange     Kind = "invalid_range"
	Conflict         Kind = "conflict"
	Forbidden        Kind = "forbidden"
	AlreadyProcessed Kind = "already_processed"
	Server           Kind = "server_error"
)

// Fault pairs a kind with a human-readable message and an optional cause.
type Fault struct {
	Kind    Kind
	Message string
	Cause   error
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Cause }

func New(kind Kind, message string) error {
	return &Fault{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) error {
	return &Fault{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind from an error chain; unexpected errors
// classify as Server.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Server
}

// MessageOf returns the human-readable message for an error chain.
func MessageOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Is reports whether the error carries the given kind.
func Is(err error, kind Kind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}
