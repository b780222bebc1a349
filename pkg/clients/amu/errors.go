package amu

import (
	"errors"
	"fmt"
)

// ErrorKind partitions adapter failures so callers can pick a reaction
// without string matching.
type ErrorKind string

const (
	// KindValidation means the server rejected the payload; the message is
	// shown to the user verbatim and the call is not retried automatically.
	KindValidation ErrorKind = "validation"
	// KindSessionExpired means the server answered 401; local credentials
	// have already been cleared and the user must authenticate again.
	KindSessionExpired ErrorKind = "session_expired"
	// KindConnection means no response reached us; retrying is at the
	// caller's discretion, the adapter never retries on its own.
	KindConnection ErrorKind = "connection"
	// KindUnknown covers non-2xx responses with an unparseable body.
	KindUnknown ErrorKind = "unknown"
)

// Error is the single error shape every adapter operation surfaces.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("amu api %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("amu api %s error: %s", e.Kind, e.Message)
}

// Unwrap exposes the transport-level cause, when there is one.
func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the adapter error kind, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsSessionExpired reports whether err is a 401 from the remote API.
func IsSessionExpired(err error) bool { return KindOf(err) == KindSessionExpired }

// IsConnection reports whether err never reached the remote API.
func IsConnection(err error) bool { return KindOf(err) == KindConnection }
