package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aita-solution/qper-threads-correct/pkg/assistants"
	"github.com/aita-solution/qper-threads-correct/pkg/chat"
	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/transcribe"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type echoRemote struct {
	mu    sync.Mutex
	last  string
	posts int
}

func (r *echoRemote) CreateThread(context.Context) (*assistants.Thread, error) {
	return &assistants.Thread{ID: "thread_1"}, nil
}

func (r *echoRemote) CreateMessage(_ context.Context, threadID string, req *assistants.MessageRequest) (*assistants.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts++
	r.last, _ = req.Content.Text()
	return &assistants.Message{ID: "msg_u", ThreadID: threadID, Role: assistants.RoleUser}, nil
}

func (r *echoRemote) CreateRun(_ context.Context, threadID string, _ *assistants.RunRequest) (*assistants.Run, error) {
	return &assistants.Run{ID: "run_1", ThreadID: threadID, Status: assistants.RunCompleted}, nil
}

func (r *echoRemote) GetRun(_ context.Context, threadID, runID string) (*assistants.Run, error) {
	return &assistants.Run{ID: runID, ThreadID: threadID, Status: assistants.RunCompleted}, nil
}

func (r *echoRemote) CancelRun(_ context.Context, threadID, runID string) (*assistants.Run, error) {
	return &assistants.Run{ID: runID, ThreadID: threadID, Status: assistants.RunCancelled}, nil
}

func (r *echoRemote) ListMessages(context.Context, string, *assistants.ListOptions) (*assistants.MessageList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &assistants.MessageList{Data: []assistants.Message{
		{ID: "msg_a", Role: assistants.RoleAssistant, Content: assistants.TextContent("re: " + r.last)},
	}}, nil
}

type memFiles struct{}

func (memFiles) Upload(_ context.Context, _ io.Reader, filename, _ string, purpose assistants.FilePurpose) (*assistants.File, error) {
	return &assistants.File{ID: "file_" + filename, Filename: filename, Purpose: purpose}, nil
}

type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(_ context.Context, a transcribe.Audio) (string, error) {
	if len(a.Data) == 0 {
		return "", &transcribe.Error{Code: transcribe.CodeNoAudioData}
	}
	return "gesprochen", nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(Config{
		NewSession: func(context.Context) (*Session, error) {
			coord := upload.NewCoordinator(upload.Config{Files: memFiles{}, Limits: upload.CompactLimits, Logger: quiet})
			orch, err := chat.New(chat.Config{
				Remote:       &echoRemote{},
				Uploader:     coord,
				AssistantID:  "asst_1",
				PollInterval: 5 * time.Millisecond,
				Logger:       quiet,
			})
			if err != nil {
				return nil, err
			}
			core, err := chatcore.New(chatcore.Config{
				Orchestrator: orch,
				Coordinator:  coord,
				Transcriber:  fakeTranscriber{},
				Logger:       quiet,
			})
			if err != nil {
				return nil, err
			}
			return &Session{Core: core, Release: func() { orch.Close() }}, nil
		},
		Logger: quiet,
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + DefaultPath
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, req any) Response {
	t.Helper()
	if err := ws.WriteJSON(req); err != nil {
		t.Fatal(err)
	}
	return read(t, ws)
}

func read(t *testing.T, ws *websocket.Conn) Response {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	var resp Response
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestPing(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)
	resp := roundTrip(t, ws, Request{Type: TypePing, ID: "p1"})
	if resp.Type != TypePong || resp.ID != "p1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSubmit(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)

	ack := roundTrip(t, ws, Request{Type: TypeSubmit, ID: "1", Text: "Hallo"})
	if ack.Type != TypeAck || ack.ID != "1" || ack.TurnID == "" {
		t.Fatalf("ack = %+v", ack)
	}
	reply := read(t, ws)
	if reply.Type != TypeReply || reply.TurnID != ack.TurnID || reply.Text != "re: Hallo" || reply.Error != nil {
		t.Errorf("reply = %+v", reply)
	}
	if reply.Session != "thread_1" {
		t.Errorf("session = %q", reply.Session)
	}
}

func TestSubmitOrder(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)
	for _, text := range []string{"A", "B"} {
		if err := ws.WriteJSON(Request{Type: TypeSubmit, ID: text, Text: text}); err != nil {
			t.Fatal(err)
		}
	}
	var replies []string
	for len(replies) < 2 {
		resp := read(t, ws)
		if resp.Type == TypeReply {
			replies = append(replies, resp.ID+"="+resp.Text)
		}
	}
	if replies[0] != "A=re: A" || replies[1] != "B=re: B" {
		t.Errorf("replies = %v", replies)
	}
}

func TestSubmitRejectsInlineFile(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)

	tests := []struct {
		name string
		file InlineFile
		want string
	}{
		{"type", InlineFile{Name: "tool.exe", MIMEType: "application/x-msdownload", Data: []byte{1}}, chatcore.MsgFileUnsupported},
		{"size", InlineFile{Name: "big.pdf", MIMEType: upload.MIMEPDF, Data: make([]byte, 6<<20)}, "Datei ist zu groß (max. 5MB)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := roundTrip(t, ws, Request{Type: TypeSubmit, ID: tt.name, Text: "x", Files: []InlineFile{tt.file}})
			if resp.Type != TypeError || resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
				t.Fatalf("resp = %+v", resp)
			}
			if resp.Error.Message != tt.want || resp.Error.File != tt.file.Name {
				t.Errorf("error = %+v", resp.Error)
			}
		})
	}
}

func TestSubmitWithAttachment(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)
	ack := roundTrip(t, ws, Request{Type: TypeSubmit, ID: "f", Text: "see file", Files: []InlineFile{
		{Name: "notes.pdf", Data: []byte("%PDF-1.4 test")},
	}})
	if ack.Type != TypeAck {
		t.Fatalf("ack = %+v", ack)
	}
	if reply := read(t, ws); reply.Type != TypeReply || reply.Error != nil {
		t.Errorf("reply = %+v", reply)
	}
}

func TestTranscribe(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)

	resp := roundTrip(t, ws, Request{Type: TypeTranscribe, ID: "t", Audio: []byte("webm"), MIMEType: "audio/webm"})
	if resp.Type != TypeTranscript || resp.Text != "gesprochen" {
		t.Errorf("resp = %+v", resp)
	}

	resp = roundTrip(t, ws, Request{Type: TypeTranscribe, ID: "t2"})
	if resp.Type != TypeError || resp.Error.Code != string(transcribe.CodeNoAudioData) || resp.Error.Message != chatcore.MsgNoSpeech {
		t.Errorf("empty audio resp = %+v", resp)
	}
}

func TestResetAndBadFrames(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)

	if resp := roundTrip(t, ws, Request{Type: TypeReset, ID: "r"}); resp.Type != TypeReset || resp.ID != "r" {
		t.Errorf("reset resp = %+v", resp)
	}
	if resp := roundTrip(t, ws, Request{Type: "dance"}); resp.Type != TypeError || resp.Error.Code != "BAD_REQUEST" || resp.ID == "" {
		t.Errorf("unknown type resp = %+v", resp)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if resp := read(t, ws); resp.Type != TypeError || resp.Error.Code != "BAD_REQUEST" {
		t.Errorf("bad json resp = %+v", resp)
	}
	if resp := roundTrip(t, ws, Request{Type: TypePing}); resp.Type != TypePong {
		t.Errorf("connection unusable after bad frame: %+v", resp)
	}
}

func TestHealthz(t *testing.T) {
	srv, ts := newTestServer(t)
	dial(t, ts)
	deadline := time.Now().Add(time.Second)
	for srv.Connections() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Status      string `json:"status"`
		Connections int    `json:"connections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Connections != 1 {
		t.Errorf("healthz = %+v", body)
	}
}

func TestOrigin(t *testing.T) {
	srv, err := New(Config{
		NewSession:     func(context.Context) (*Session, error) { return nil, fmt.Errorf("unused") },
		AllowedOrigins: []string{"https://qper.example"},
		Logger:         quiet,
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + DefaultPath
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("resp = %v", resp)
	}
}

func TestNewRequiresSession(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error")
	}
}
