package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken is returned by token stores when nothing is stored.
	ErrNoToken = errors.New("no stored token")
	// ErrNotAuthenticated is returned when an operation needs a session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ErrorKind discriminates request failures so callers can branch without
// inspecting messages.
type ErrorKind string

const (
	// KindTransport: the request never completed.
	KindTransport ErrorKind = "transport"
	// KindStatus: the service answered outside 200-299.
	KindStatus ErrorKind = "status"
	// KindDecode: a declared JSON body could not be parsed.
	KindDecode ErrorKind = "decode"
	// KindInvalid: the request could not be built (bad base URL, payload
	// rejected by local validation).
	KindInvalid ErrorKind = "invalid"
)

// RequestError is the single failure type produced by the API client.
type RequestError struct {
	Kind   ErrorKind
	Method string
	URL    string
	Status int
	// Message follows the priority body.error, body.message, status text.
	Message string
	// ServerError is the body's error field alone, empty when absent.
	ServerError string
	// Body is the parsed response body when one was received.
	Body map[string]any
	Err  error
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %s failed (%s)", e.Method, e.URL, e.Kind)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsKind reports whether err is a RequestError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == kind
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// AuthError is recorded by the session when login or registration fails.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }
