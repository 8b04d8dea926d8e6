package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aita-solution/qper-threads-correct/pkg/assistants"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// DefaultFallback is shown to the user in place of a reply when a turn fails.
const DefaultFallback = "Entschuldigung, es gab ein technisches Problem. Bitte versuchen Sie es erneut."

var (
	// ErrRunTimeout is returned when a run is still not finished after
	// MaxPollDuration.
	ErrRunTimeout = errors.New("chat: run did not finish in time")

	// ErrReset rejects turns that were still queued when the conversation
	// was reset.
	ErrReset = errors.New("chat: conversation reset")

	// ErrClosed rejects turns submitted to or queued in a closed Orchestrator.
	ErrClosed = errors.New("chat: orchestrator closed")

	// ErrNoReply is returned when a completed run left no assistant message.
	ErrNoReply = errors.New("chat: no assistant reply")

	// ErrEmptyTurn rejects a turn with neither text nor attachments.
	ErrEmptyTurn = errors.New("chat: empty turn")
)

// RunFailedError reports a run that ended with status failed.
type RunFailedError struct {
	RunID   string
	Status  assistants.RunStatus
	Code    string
	Message string
}

// Error implements the error interface.
func (e *RunFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chat: run %s %s: %s", e.RunID, e.Status, e.Message)
	}
	return fmt.Sprintf("chat: run %s %s", e.RunID, e.Status)
}

// TurnError rejects a turn. Fallback is the text to show the user; Err is the
// underlying cause.
type TurnError struct {
	TurnID   string
	Fallback string
	Err      error
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	return fmt.Sprintf("chat: turn %s: %v", e.TurnID, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// AsTurnError extracts *TurnError from an error.
func AsTurnError(err error) (*TurnError, bool) {
	var e *TurnError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ErrorCode returns a short classification of a turn failure for logs and
// clients.
func ErrorCode(err error) string {
	var (
		rf *RunFailedError
		ve *upload.ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRunTimeout):
		return "RUN_TIMEOUT"
	case errors.Is(err, ErrReset):
		return "RESET"
	case errors.Is(err, ErrClosed):
		return "CLOSED"
	case errors.Is(err, ErrNoReply):
		return "NO_REPLY"
	case errors.Is(err, ErrEmptyTurn):
		return "EMPTY_TURN"
	case errors.As(err, &rf):
		return "RUN_FAILED"
	case errors.As(err, &ve):
		return "VALIDATION_ERROR"
	}
	if _, ok := upload.AsUploadError(err); ok {
		return "UPLOAD_ERROR"
	}
	if e, ok := assistants.AsError(err); ok {
		return "HTTP_" + strconv.Itoa(e.HTTPStatus)
	}
	if assistants.IsNetworkError(err) {
		return "NETWORK_ERROR"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "CANCELLED"
	}
	return "UNKNOWN"
}
