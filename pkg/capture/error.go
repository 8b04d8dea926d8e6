package capture

import (
	"errors"
	"fmt"
)

// Code classifies capture failures.
type Code string

const (
	CodeUnsupportedFormat    Code = "UNSUPPORTED_FORMAT"
	CodeMicAccess            Code = "MIC_ACCESS_ERROR"
	CodeProcessingInProgress Code = "PROCESSING_IN_PROGRESS"
	CodeNoActiveRecording    Code = "NO_ACTIVE_RECORDING"
	CodeStopTimeout          Code = "STOP_TIMEOUT"
	CodeBlobCreation         Code = "BLOB_CREATION_ERROR"
	CodeInvalidState         Code = "INVALID_STATE"
	CodeCamera               Code = "CAMERA_ERROR"
	CodeCancelled            Code = "CANCELLED"
)

// Error is a capture failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("capture: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts *Error from an error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err is a capture error with the given code.
func HasCode(err error, code Code) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}
