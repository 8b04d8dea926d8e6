package server

import (
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// Frame types.
const (
	TypeSubmit     = "submit"
	TypeTranscribe = "transcribe"
	TypeReset      = "reset"
	TypePing       = "ping"

	TypeAck        = "ack"
	TypeReply      = "reply"
	TypeTranscript = "transcript"
	TypePong       = "pong"
	TypeError      = "error"
)

// Request is a frame sent by the client.
type Request struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`

	// submit
	Text  string       `json:"text,omitempty"`
	Files []InlineFile `json:"files,omitempty"`

	// transcribe
	Audio    []byte `json:"audio,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

// InlineFile is an attachment carried inside a submit frame.
type InlineFile struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data"`
}

func (f InlineFile) file() upload.File {
	mt := f.MIMEType
	if mt == "" {
		mt = upload.DetectMIME(f.Name, f.Data)
	}
	return upload.File{Name: f.Name, MIMEType: mt, Data: f.Data}
}

// Response is a frame sent by the server.
type Response struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	TurnID string `json:"turn_id,omitempty"`
	Text   string `json:"text,omitempty"`

	// Session is the remote session id on reply frames.
	Session string `json:"session,omitempty"`

	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request. Message is meant for the user.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
}
