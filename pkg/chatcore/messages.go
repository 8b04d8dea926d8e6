package chatcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aita-solution/qper-threads-correct/pkg/capture"
	"github.com/aita-solution/qper-threads-correct/pkg/chat"
	"github.com/aita-solution/qper-threads-correct/pkg/transcribe"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// User-facing messages.
const (
	MsgSpeechFailed    = "Fehler bei der Spracherkennung"
	MsgCheckConnection = "Bitte überprüfen Sie Ihre Internetverbindung"
	MsgRecordingTooBig = "Aufnahme zu lang (max. 25MB)"
	MsgNoSpeech        = "Keine Sprache erkannt"
	MsgNoMicrophone    = "Mikrofonzugriff nicht möglich"
	MsgBusyRecording   = "Aufnahme wird noch verarbeitet"
	MsgNotRecording    = "Aufnahme ist nicht aktiv"
	MsgRecordCancelled = "Aufnahme abgebrochen"
	MsgCameraFailed    = "Kamera nicht verfügbar"
	MsgFileUnsupported = "Dateityp wird nicht unterstützt"
	MsgFileEmpty       = "Datei ist leer"
)

// DescribeError turns an error from any Core operation into a short German
// message for the user.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	if te, ok := chat.AsTurnError(err); ok && te.Fallback != "" {
		return te.Fallback
	}

	var ve *upload.ValidationError
	if errors.As(err, &ve) {
		switch ve.Reason {
		case upload.ReasonTooLarge:
			return fmt.Sprintf("Datei ist zu groß (max. %dMB)", ve.Max>>20)
		case upload.ReasonEmpty:
			return MsgFileEmpty
		default:
			return MsgFileUnsupported
		}
	}

	if e, ok := transcribe.AsError(err); ok {
		switch e.Code {
		case transcribe.CodeNoAudioData, transcribe.CodeEmptyTranscription:
			return MsgNoSpeech
		case transcribe.CodeFileTooLarge:
			return MsgRecordingTooBig
		case transcribe.CodeTranscription:
			if e.HTTPStatus == 0 && e.Err != nil && !errors.Is(e.Err, context.Canceled) {
				return MsgCheckConnection
			}
		}
		return MsgSpeechFailed
	}

	if e, ok := capture.AsError(err); ok {
		switch e.Code {
		case capture.CodeMicAccess:
			return MsgNoMicrophone
		case capture.CodeProcessingInProgress:
			return MsgBusyRecording
		case capture.CodeNoActiveRecording, capture.CodeInvalidState:
			return MsgNotRecording
		case capture.CodeCamera:
			return MsgCameraFailed
		case capture.CodeCancelled:
			return MsgRecordCancelled
		}
		return MsgSpeechFailed
	}

	return chat.DefaultFallback
}
