package directory

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse matches any response body that is not a JSON array of users.
var ErrMalformedResponse = errors.New("malformed response from directory")

// StatusError is returned when the directory answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("directory returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("directory returned status %d: %s", e.StatusCode, e.Body)
}

// UserMessage is the text shown in the widget. The body is left out since it
// is whatever the server chose to send.
func (e *StatusError) UserMessage() string {
	return fmt.Sprintf("HTTP error: status %d", e.StatusCode)
}

// MalformedResponseError wraps the decode failure for a 2xx response.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrMalformedResponse, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func (e *MalformedResponseError) UserMessage() string {
	return ErrMalformedResponse.Error()
}

// TransportError covers failures before a status line was received:
// refused connections, DNS, client timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("directory request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) UserMessage() string {
	return "directory request failed"
}
