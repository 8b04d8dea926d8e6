package chatcore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/aita-solution/qper-threads-correct/pkg/capture"
	"github.com/aita-solution/qper-threads-correct/pkg/chat"
	"github.com/aita-solution/qper-threads-correct/pkg/transcribe"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

func TestDescribeError(t *testing.T) {
	netErr := &url.Error{Op: "Post", URL: "https://api.openai.com", Err: errors.New("connection refused")}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"no audio", &transcribe.Error{Code: transcribe.CodeNoAudioData}, MsgNoSpeech},
		{"empty transcript", &transcribe.Error{Code: transcribe.CodeEmptyTranscription}, MsgNoSpeech},
		{"too long", &transcribe.Error{Code: transcribe.CodeFileTooLarge}, MsgRecordingTooBig},
		{"network", &transcribe.Error{Code: transcribe.CodeTranscription, Err: netErr}, MsgCheckConnection},
		{"api", &transcribe.Error{Code: transcribe.CodeTranscription, HTTPStatus: 500, Err: errors.New("x")}, MsgSpeechFailed},
		{"cancelled", &transcribe.Error{Code: transcribe.CodeTranscription, Err: context.Canceled}, MsgSpeechFailed},
		{"config", &transcribe.Error{Code: transcribe.CodeAPIConfig}, MsgSpeechFailed},
		{"mic", fmt.Errorf("start: %w", &capture.Error{Code: capture.CodeMicAccess}), MsgNoMicrophone},
		{"stopping", &capture.Error{Code: capture.CodeProcessingInProgress}, MsgBusyRecording},
		{"stop timeout", &capture.Error{Code: capture.CodeStopTimeout}, MsgSpeechFailed},
		{"stop cancelled", &capture.Error{Code: capture.CodeCancelled, Err: context.Canceled}, MsgRecordCancelled},
		{"too large file", &upload.ValidationError{Reason: upload.ReasonTooLarge, Max: 20 << 20}, "Datei ist zu groß (max. 20MB)"},
		{"compact limit", &upload.ValidationError{Reason: upload.ReasonTooLarge, Max: 5 << 20}, "Datei ist zu groß (max. 5MB)"},
		{"bad type", &upload.ValidationError{Reason: upload.ReasonUnsupported}, MsgFileUnsupported},
		{"turn", &chat.TurnError{Fallback: "custom", Err: chat.ErrRunTimeout}, "custom"},
		{"other", errors.New("boom"), chat.DefaultFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeError(tt.err); got != tt.want {
				t.Errorf("DescribeError() = %q, want %q", got, tt.want)
			}
		})
	}
}
