package requester

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrCancelled matches every error produced from a Cancelled outcome
	ErrCancelled = errors.New("request cancelled")

	// ErrNoResponse indicates the transport returned neither a response nor an error
	ErrNoResponse = errors.New("no response")
)

// HTTPError indicates that the server answered with a non-2xx status.
// Body is the decoded JSON error body, or a string of the form
// "{status: text}" when the body was not usable JSON.
type HTTPError struct {
	Status int
	Body   any
}

func (e *HTTPError) Error() string {
	switch body := e.Body.(type) {
	case nil:
		return fmt.Sprintf("http request failed: %d", e.Status)
	case string:
		return fmt.Sprintf("http request failed: %s", body)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Sprintf("http request failed: %d", e.Status)
		}
		return fmt.Sprintf("http request failed: %d: %s", e.Status, data)
	}
}

// TransportError indicates that no usable response was obtained
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return "transport error"
	}
	return fmt.Sprintf("transport error: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// CancelledError indicates the deadline (or the caller's context) ended
// the call before a response arrived. It matches ErrCancelled and
// unwraps to the cancellation cause.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return ErrCancelled.Error()
	}
	return fmt.Sprintf("%v: %v", ErrCancelled, e.Cause)
}

func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}
