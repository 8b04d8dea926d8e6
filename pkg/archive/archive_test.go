package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/aita-solution/qper-threads-correct/pkg/capture"
)

type apiError struct{ code string }

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type object struct {
	data        []byte
	contentType string
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]object
	putErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string]object{}} }

func (m *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(o.data)),
		ContentType: aws.String(o.contentType),
	}, nil
}

func (m *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = object{data: data, contentType: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (m *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	local, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"local": local,
		"s3":    NewS3(newFakeS3(), "bucket", "qper"),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if ok, err := st.Exists(ctx, "a/b.wav"); err != nil || ok {
				t.Fatalf("Exists before put = %v, %v", ok, err)
			}
			if _, err := st.Get(ctx, "a/b.wav"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get missing err = %v, want ErrNotFound", err)
			}
			if err := st.Put(ctx, "a/b.wav", []byte("RIFF"), "audio/wav"); err != nil {
				t.Fatal(err)
			}
			obj, err := st.Get(ctx, "a/b.wav")
			if err != nil {
				t.Fatal(err)
			}
			if string(obj.Data) != "RIFF" {
				t.Errorf("data = %q", obj.Data)
			}
			if name == "s3" && obj.ContentType != "audio/wav" {
				t.Errorf("content type = %q", obj.ContentType)
			}
			if ok, _ := st.Exists(ctx, "a/b.wav"); !ok {
				t.Error("Exists after put = false")
			}
			if err := st.Delete(ctx, "a/b.wav"); err != nil {
				t.Fatal(err)
			}
			if err := st.Delete(ctx, "a/b.wav"); err != nil {
				t.Fatalf("second delete: %v", err)
			}
			if ok, _ := st.Exists(ctx, "a/b.wav"); ok {
				t.Error("Exists after delete = true")
			}
		})
	}
}

func TestLocalRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Put(context.Background(), "../../etc/x", []byte("x"), ""); err != nil {
		t.Fatal(err)
	}
	ok, err := l.Exists(context.Background(), "etc/x")
	if err != nil || !ok {
		t.Fatalf("escaped key not contained in root: %v %v", ok, err)
	}
	if err := l.Put(context.Background(), "/", []byte("x"), ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestS3Prefix(t *testing.T) {
	m := newFakeS3()
	st := NewS3(m, "bucket", "/audit/")
	if err := st.Put(context.Background(), "x.jpg", []byte{1}, "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.objects["audit/x.jpg"]; !ok {
		t.Errorf("keys = %v, want audit/x.jpg", m.objects)
	}
}

func fixedArchiver(st Store) *Archiver {
	a := New(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.now = func() time.Time { return time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestSaveRecording(t *testing.T) {
	m := newFakeS3()
	a := fixedArchiver(NewS3(m, "bucket", ""))
	blob := &capture.Blob{Data: []byte("RIFFdata"), MIMEType: "audio/wav", Format: capture.Mono16k}

	key, err := a.SaveRecording(context.Background(), blob, "  Hallo Welt ")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(key, "recordings/2026/03/07/") || !strings.HasSuffix(key, ".wav") {
		t.Errorf("key = %q", key)
	}
	if got := m.objects[key].contentType; got != "audio/wav" {
		t.Errorf("content type = %q", got)
	}
	if got := string(m.objects[key+".txt"].data); got != "Hallo Welt\n" {
		t.Errorf("transcript = %q", got)
	}
}

func TestSaveRecordingSkipsEmpty(t *testing.T) {
	m := newFakeS3()
	a := fixedArchiver(NewS3(m, "bucket", ""))
	key, err := a.SaveRecording(context.Background(), &capture.Blob{MIMEType: "audio/wav"}, "")
	if err != nil || key != "" {
		t.Fatalf("SaveRecording(empty) = %q, %v", key, err)
	}
	if len(m.objects) != 0 {
		t.Errorf("objects = %d, want 0", len(m.objects))
	}
}

func TestSavePhoto(t *testing.T) {
	m := newFakeS3()
	a := fixedArchiver(NewS3(m, "bucket", ""))
	key, err := a.SavePhoto(context.Background(), &capture.Photo{
		Name: "photo-1.jpg", MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8},
	})
	if err != nil {
		t.Fatal(err)
	}
	if key != "photos/2026/03/07/photo-1.jpg" {
		t.Errorf("key = %q", key)
	}
}

func TestSaveFailureReturned(t *testing.T) {
	m := newFakeS3()
	m.putErr = errors.New("boom")
	a := fixedArchiver(NewS3(m, "bucket", ""))
	_, err := a.SavePhoto(context.Background(), &capture.Photo{Name: "p.jpg", Data: []byte{1}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNilArchiver(t *testing.T) {
	var a *Archiver
	key, err := a.SaveRecording(context.Background(), &capture.Blob{Data: []byte{1}}, "x")
	if key != "" || err != nil {
		t.Errorf("nil archiver = %q, %v", key, err)
	}
	if a.Store() != nil {
		t.Error("nil archiver store != nil")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"audio/wav":              ".wav",
		"audio/webm;codecs=opus": ".webm",
		"audio/ogg; codecs=opus": ".ogg",
		"audio/mp4":              ".m4a",
		"application/x-unknown":  ".bin",
	}
	for in, want := range tests {
		if got := extensionFor(in); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client(S3Config{Bucket: "b", Endpoint: "http://127.0.0.1:9000", PathStyle: true, AccessKey: "k", SecretKey: "s"})
	if c == nil {
		t.Fatal("nil client")
	}
	opts := c.Options()
	if opts.Region != "us-east-1" || !opts.UsePathStyle || aws.ToString(opts.BaseEndpoint) != "http://127.0.0.1:9000" {
		t.Errorf("options = region %q pathStyle %v endpoint %q", opts.Region, opts.UsePathStyle, aws.ToString(opts.BaseEndpoint))
	}
}
