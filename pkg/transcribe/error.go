package transcribe

import (
	"errors"
	"fmt"
)

// Code classifies transcription failures.
type Code string

const (
	CodeAPIConfig          Code = "API_CONFIG_ERROR"
	CodeNoAudioData        Code = "NO_AUDIO_DATA"
	CodeFileTooLarge       Code = "FILE_TOO_LARGE"
	CodeTranscription      Code = "TRANSCRIPTION_ERROR"
	CodeEmptyTranscription Code = "EMPTY_TRANSCRIPTION"
)

// Error is returned by Client.Transcribe.
type Error struct {
	Code    Code
	Message string

	// HTTPStatus is set when the service answered with a non-2xx status.
	HTTPStatus int

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("transcribe: %s: %s", e.Code, e.Message)
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

// HasCode reports whether err is a transcription error with the given code.
func HasCode(err error, code Code) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}
