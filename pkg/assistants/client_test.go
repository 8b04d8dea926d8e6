package assistants

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("sk-test", WithBaseURL(srv.URL))
}

func checkHeaders(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}
	if got := r.Header.Get("OpenAI-Beta"); got != "assistants=v2" {
		t.Errorf("OpenAI-Beta = %q", got)
	}
}

func TestThreadsCreate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkHeaders(t, r)
		if r.Method != http.MethodPost || r.URL.Path != "/threads" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"id":"thread_1","object":"thread"}`))
	})

	th, err := c.Threads.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if th.ID != "thread_1" {
		t.Errorf("ID = %q", th.ID)
	}
}

func TestMessagesCreate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkHeaders(t, r)
		if r.URL.Path != "/threads/thread_1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["role"] != "user" {
			t.Errorf("role = %v", body["role"])
		}
		if body["content"] != "Hello" {
			t.Errorf("content = %v", body["content"])
		}
		atts, _ := body["attachments"].([]any)
		if len(atts) != 1 {
			t.Fatalf("attachments = %v", body["attachments"])
		}
		w.Write([]byte(`{"id":"msg_1","role":"user","content":[{"type":"text","text":{"value":"Hello","annotations":[]}}]}`))
	})

	msg, err := c.Messages.Create(context.Background(), "thread_1", &MessageRequest{
		Content:     TextContent("Hello"),
		Attachments: []Attachment{{FileID: "file-1", Tools: []Tool{{Type: "file_search"}}}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if text, _ := msg.Content.Text(); text != "Hello" {
		t.Errorf("text = %q", text)
	}
}

func TestMessagesListDefaultsNewestFirst(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("order"); got != "desc" {
			t.Errorf("order = %q", got)
		}
		w.Write([]byte(`{"data":[{"id":"m2","role":"assistant","content":"hi"},{"id":"m1","role":"user","content":"hello"}],"has_more":false}`))
	})

	list, err := c.Messages.List(context.Background(), "thread_1", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Data) != 2 || list.Data[0].Role != RoleAssistant {
		t.Errorf("unexpected list: %+v", list.Data)
	}
}

func TestRunsCreateAndGet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkHeaders(t, r)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads/t1/runs":
			var req RunRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.AssistantID != "asst_1" || req.Model != "gpt-4o" {
				t.Errorf("run request = %+v", req)
			}
			w.Write([]byte(`{"id":"run_1","thread_id":"t1","status":"queued"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/threads/t1/runs/run_1":
			w.Write([]byte(`{"id":"run_1","thread_id":"t1","status":"completed"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	run, err := c.Runs.Create(ctx, "t1", &RunRequest{AssistantID: "asst_1", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.Status != RunQueued {
		t.Errorf("status = %s", run.Status)
	}
	run, err = c.Runs.Get(ctx, "t1", run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Status != RunCompleted {
		t.Errorf("status = %s", run.Status)
	}
}

func TestRunsCreateRequiresAssistant(t *testing.T) {
	c := NewClient("sk-test", WithBaseURL("http://127.0.0.1:0"))
	if _, err := c.Runs.Create(context.Background(), "t1", &RunRequest{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFilesUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkHeaders(t, r)
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Content-Type = %s", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("purpose"); got != "vision" {
			t.Errorf("purpose = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "photo.jpg" || string(data) != "jpegdata" {
			t.Errorf("file = %s %q", hdr.Filename, data)
		}
		if got := hdr.Header.Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("part Content-Type = %q", got)
		}
		w.Write([]byte(`{"id":"file-abc","filename":"photo.jpg","bytes":8,"purpose":"vision"}`))
	})

	f, err := c.Files.Upload(context.Background(), strings.NewReader("jpegdata"), "photo.jpg", "image/jpeg", PurposeVision)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if f.ID != "file-abc" {
		t.Errorf("ID = %q", f.ID)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		typ     string
	}{
		{"structured", 400, `{"error":{"message":"bad thread","type":"invalid_request_error","code":null}}`, "bad thread", "invalid_request_error"},
		{"unstructured", 502, `<html>gateway</html>`, "API request failed", ""},
		{"rate limit", 429, `{"error":{"message":"slow down","type":"rate_limit","code":"rate_limit_exceeded"}}`, "slow down", "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Threads.Create(context.Background())
			e, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %v", err)
			}
			if e.HTTPStatus != tt.status || e.Message != tt.message || e.Type != tt.typ {
				t.Errorf("error = %+v", e)
			}
			if e.Body != tt.body {
				t.Errorf("Body = %q", e.Body)
			}
			if !IsNetworkError(err) {
				t.Error("IsNetworkError should be true")
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient("sk-test", WithBaseURL(url))
	_, err := c.Threads.Create(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNetworkError(err) {
		t.Errorf("IsNetworkError(%v) = false", err)
	}
	if _, ok := AsError(err); ok {
		t.Error("transport failure should not be *Error")
	}
	if IsNetworkError(errors.New("other")) {
		t.Error("plain error reported as network error")
	}
}
