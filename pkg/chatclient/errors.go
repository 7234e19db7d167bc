package chatclient

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrSubmissionPending is returned when a submission is attempted while
	// another exchange is still in flight.
	ErrSubmissionPending = errors.New("a submission is already in flight")
	// ErrNoSession is returned by operations that need an established session.
	ErrNoSession = errors.New("no session established")
	// ErrUnsupported is returned when the endpoint profile has no path for
	// the requested operation.
	ErrUnsupported = errors.New("operation not supported by endpoint profile")
)

// TransportError covers unreachable backends and non-2xx responses.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError covers bodies that are not JSON or lack an expected field.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode response field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func IsTransportFailure(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsDecodeFailure(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
