package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedResponse is returned when a successful response carries a
	// body that is neither empty nor a JSON object.
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrSignInRequired is returned when the server redirects a request to
	// its sign-in page.
	ErrSignInRequired = errors.New("sign in required")
)

// Error is a failure reported by the server in the "error" field of a JSON
// response. Its message is meant to be shown to the user as is.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// ServerMessage returns the message as the server wrote it.
func (e *Error) ServerMessage() string { return e.Message }

// StatusError is a non-2xx response that did not carry a JSON error.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

// IsServerError reports whether err carries a message from the server.
func IsServerError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
