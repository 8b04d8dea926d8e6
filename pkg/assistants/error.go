package assistants

import (
	"errors"
	"fmt"
)

// Error is returned for every non-2xx response from the API.
type Error struct {
	// HTTPStatus is the HTTP status code.
	HTTPStatus int `json:"http_status"`

	// Message is the server-provided error message, or a generic one when
	// the body carried none.
	Message string `json:"message"`

	// Type is the server error type, e.g. "invalid_request_error".
	Type string `json:"type,omitempty"`

	// Code is the server error code, if any.
	Code string `json:"code,omitempty"`

	// Body is the raw response body.
	Body string `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("assistants: %s (status=%d, type=%s)", e.Message, e.HTTPStatus, e.Type)
	}
	return fmt.Sprintf("assistants: %s (status=%d)", e.Message, e.HTTPStatus)
}

// IsRateLimit returns true if this is a rate limit error.
func (e *Error) IsRateLimit() bool {
	return e.HTTPStatus == 429
}

// IsInvalidAPIKey returns true if the credential was rejected.
func (e *Error) IsInvalidAPIKey() bool {
	return e.HTTPStatus == 401
}

// IsNotFound returns true if the referenced thread, run or file is unknown.
func (e *Error) IsNotFound() bool {
	return e.HTTPStatus == 404
}

// IsServerError returns true if this is a server-side error.
func (e *Error) IsServerError() bool {
	return e.HTTPStatus >= 500
}

// AsError extracts *Error from an error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// transportError reports a request that never produced an HTTP response.
type transportError struct {
	op  string
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("assistants: %s: %v", e.op, e.err)
}

func (e *transportError) Unwrap() error {
	return e.err
}

// IsNetworkError reports whether err is a transport failure or a non-2xx
// response from the API.
func IsNetworkError(err error) bool {
	if _, ok := AsError(err); ok {
		return true
	}
	var te *transportError
	return errors.As(err, &te)
}
