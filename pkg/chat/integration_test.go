package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aita-solution/qper-threads-correct/pkg/assistants"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// assistantServer is a minimal in-memory implementation of the thread API.
type assistantServer struct {
	mu    sync.Mutex
	log   []string
	polls int
	body  map[string]any
}

func (s *assistantServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/threads":
		w.Write([]byte(`{"id":"thread_abc","object":"thread"}`))
	case r.Method == http.MethodPost && r.URL.Path == "/files":
		w.Write([]byte(`{"id":"file-xyz","filename":"doc.pdf","purpose":"assistants"}`))
	case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_abc/messages":
		json.NewDecoder(r.Body).Decode(&s.body)
		w.Write([]byte(`{"id":"msg_u","role":"user","content":[]}`))
	case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_abc/runs":
		w.Write([]byte(`{"id":"run_1","thread_id":"thread_abc","status":"queued"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_abc/runs/run_1":
		s.polls++
		status := "in_progress"
		if s.polls >= 2 {
			status = "completed"
		}
		w.Write([]byte(`{"id":"run_1","thread_id":"thread_abc","status":"` + status + `"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_abc/messages":
		w.Write([]byte(`{"data":[
			{"id":"msg_a","role":"assistant","content":[{"type":"text","text":{"value":"Hallo! ","annotations":[]}},{"type":"text","text":{"value":"Wie kann ich helfen?","annotations":[]}}]},
			{"id":"msg_u","role":"user","content":[{"type":"text","text":{"value":"Hello","annotations":[]}}]}
		],"has_more":false}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"unknown route","type":"invalid_request_error"}}`))
	}
}

func (s *assistantServer) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func TestHelloScenarioOverHTTP(t *testing.T) {
	srv := &assistantServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := assistants.NewClient("sk-test", assistants.WithBaseURL(ts.URL))
	o, err := New(Config{
		Remote:       NewRemote(client),
		Uploader:     upload.NewCoordinator(upload.Config{Files: client.Files}),
		AssistantID:  "asst_1",
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply, err := o.Submit("Hello", nil).Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if reply.Text != "Hallo! Wie kann ich helfen?" {
		t.Errorf("Text = %q", reply.Text)
	}

	want := []string{
		"POST /threads",
		"POST /threads/thread_abc/messages",
		"POST /threads/thread_abc/runs",
		"GET /threads/thread_abc/runs/run_1",
		"GET /threads/thread_abc/runs/run_1",
		"GET /threads/thread_abc/messages",
	}
	if got := srv.requests(); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("requests:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestAttachmentTurnOverHTTP(t *testing.T) {
	srv := &assistantServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := assistants.NewClient("sk-test", assistants.WithBaseURL(ts.URL))
	o, err := New(Config{
		Remote:       NewRemote(client),
		Uploader:     upload.NewCoordinator(upload.Config{Files: client.Files}),
		AssistantID:  "asst_1",
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = o.Submit("Bitte zusammenfassen", []upload.File{{Name: "doc.pdf", MIMEType: upload.MIMEPDF, Data: []byte("%PDF-1.4")}}).Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	reqs := srv.requests()
	if reqs[1] != "POST /files" || reqs[2] != "POST /threads/thread_abc/messages" {
		t.Errorf("requests = %v", reqs)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	atts, _ := srv.body["attachments"].([]any)
	if len(atts) != 1 {
		t.Fatalf("attachments = %v", srv.body["attachments"])
	}
	att := atts[0].(map[string]any)
	if att["file_id"] != "file-xyz" {
		t.Errorf("attachment = %v", att)
	}
}
