package backend

import (
	"errors"
	"fmt"
)

// NetworkError is returned when a request never produced an HTTP response:
// dial failures, resets, and the per-request timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProtocolError is a non-2xx answer from the backend.
type ProtocolError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
