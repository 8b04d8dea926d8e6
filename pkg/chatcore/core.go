package chatcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aita-solution/qper-threads-correct/pkg/archive"
	"github.com/aita-solution/qper-threads-correct/pkg/capture"
	"github.com/aita-solution/qper-threads-correct/pkg/chat"
	"github.com/aita-solution/qper-threads-correct/pkg/transcribe"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// Errors returned by Core.
var (
	ErrNoRecorder    = errors.New("chatcore: no microphone configured")
	ErrNoTranscriber = errors.New("chatcore: no transcriber configured")
	ErrNoFile        = errors.New("chatcore: no such pending file")
)

// Role of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one line of the conversation as shown to the user.
type Entry struct {
	TurnID string
	Role   Role
	Text   string

	// Files names the attachments of a user entry.
	Files []string

	// Pending is true for an assistant entry whose turn is still running.
	Pending bool

	// Failed marks an assistant entry that shows the fallback text.
	Failed bool
	Err    error

	Time time.Time
}

// Config configures a Core.
type Config struct {
	// Orchestrator runs the turns. Required.
	Orchestrator *chat.Orchestrator

	// Coordinator validates attachments before they are queued. Required
	// for SelectFiles and TakePhoto.
	Coordinator *upload.Coordinator

	Recorder    *capture.Recorder
	Transcriber transcribe.Transcriber
	Camera      capture.Camera

	// Archive keeps copies of recordings and photos. Optional.
	Archive *archive.Archiver

	// OnEntry is called whenever an entry is added or settled. It must not
	// call back into Core.
	OnEntry func(Entry)

	Logger *slog.Logger
}

// Core is the state behind one chat window.
type Core struct {
	orch        *chat.Orchestrator
	coord       *upload.Coordinator
	recorder    *capture.Recorder
	transcriber transcribe.Transcriber
	camera      capture.Camera
	archive     *archive.Archiver
	onEntry     func(Entry)
	log         *slog.Logger

	wg sync.WaitGroup

	mu      sync.Mutex
	pending []upload.File
	entries []Entry
}

// New creates a Core.
func New(cfg Config) (*Core, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("chatcore: Orchestrator is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Core{
		orch:        cfg.Orchestrator,
		coord:       cfg.Coordinator,
		recorder:    cfg.Recorder,
		transcriber: cfg.Transcriber,
		camera:      cfg.Camera,
		archive:     cfg.Archive,
		onEntry:     cfg.OnEntry,
		log:         logger,
	}, nil
}

// Busy reports whether a turn is in flight or queued.
func (c *Core) Busy() bool {
	return c.orch.Busy()
}

// Send submits text together with all pending attachments. An active
// recording is discarded first. The user entry is added immediately and the
// assistant entry is settled when the turn finishes.
func (c *Core) Send(text string) *chat.Pending {
	if c.recorder != nil && c.recorder.Recording() {
		c.log.Info("recording discarded by send")
		c.recorder.Cancel()
	}

	text = strings.TrimSpace(text)

	c.mu.Lock()
	files := c.pending
	c.pending = nil
	c.mu.Unlock()

	p := c.orch.Submit(text, files)
	if text == "" && len(files) == 0 {
		return p
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	now := time.Now()
	user := Entry{TurnID: p.ID(), Role: RoleUser, Text: text, Files: names, Time: now}
	reply := Entry{TurnID: p.ID(), Role: RoleAssistant, Pending: true, Time: now}

	c.mu.Lock()
	c.entries = append(c.entries, user, reply)
	c.mu.Unlock()
	c.notify(user)
	c.notify(reply)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-p.Done()
		c.settle(p)
	}()
	return p
}

func (c *Core) settle(p *chat.Pending) {
	r, err := p.Result()

	c.mu.Lock()
	i := slices.IndexFunc(c.entries, func(e Entry) bool {
		return e.TurnID == p.ID() && e.Role == RoleAssistant
	})
	if i < 0 {
		// Transcript was reset while the turn ran.
		c.mu.Unlock()
		return
	}
	e := &c.entries[i]
	e.Pending = false
	e.Time = time.Now()
	if err != nil {
		e.Failed = true
		e.Err = err
		e.Text = DescribeError(err)
	} else {
		e.Text = r.Text
	}
	settled := *e
	c.mu.Unlock()

	c.notify(settled)
}

func (c *Core) notify(e Entry) {
	if c.onEntry != nil {
		c.onEntry(e)
	}
}

// SelectFiles validates files against the coordinator's limits and adds the
// accepted ones to the pending attachments.
func (c *Core) SelectFiles(files []upload.File) []upload.Rejection {
	_, rejected := c.addFiles(files)
	return rejected
}

// addFiles validates files and appends the accepted ones to the pending
// attachments in one critical section.
func (c *Core) addFiles(files []upload.File) ([]upload.File, []upload.Rejection) {
	if c.coord == nil {
		rejected := make([]upload.Rejection, len(files))
		for i, f := range files {
			rejected[i] = upload.Rejection{File: f, Err: errors.New("chatcore: attachments are disabled")}
		}
		return nil, rejected
	}
	accepted, rejected := c.coord.Prepare(files)
	if len(accepted) > 0 {
		c.mu.Lock()
		c.pending = append(c.pending, accepted...)
		c.mu.Unlock()
	}
	return accepted, rejected
}

// RemoveFile drops the pending attachment at index i.
func (c *Core) RemoveFile(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.pending) {
		return fmt.Errorf("%w: %d", ErrNoFile, i)
	}
	c.pending = slices.Delete(c.pending, i, i+1)
	return nil
}

// PendingFiles returns a copy of the attachments waiting to be sent.
func (c *Core) PendingFiles() []upload.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pending)
}

// Recording reports whether the microphone is recording.
func (c *Core) Recording() bool {
	return c.recorder != nil && c.recorder.Recording()
}

// StartRecording opens the microphone.
func (c *Core) StartRecording(ctx context.Context) error {
	if c.recorder == nil {
		return ErrNoRecorder
	}
	return c.recorder.Start(ctx)
}

// ToggleRecording starts a recording, or stops the current one and returns
// its transcript. A recording that ended at the time limit and has not been
// claimed yet counts as current.
func (c *Core) ToggleRecording(ctx context.Context) (text string, stopped bool, err error) {
	if c.recorder == nil {
		return "", false, ErrNoRecorder
	}
	if c.recorder.Recording() || c.recorder.AutoStopped() {
		text, err = c.StopRecording(ctx)
		return text, true, err
	}
	return "", false, c.StartRecording(ctx)
}

// StopRecording ends the recording and returns its transcript. The text is
// not sent; the caller decides what to do with it.
func (c *Core) StopRecording(ctx context.Context) (string, error) {
	if c.recorder == nil {
		return "", ErrNoRecorder
	}
	if c.transcriber == nil {
		c.recorder.Cancel()
		return "", ErrNoTranscriber
	}
	blob, err := c.recorder.Stop(ctx)
	if err != nil {
		return "", err
	}
	text, err := c.Transcribe(ctx, blob)
	if _, aerr := c.archive.SaveRecording(ctx, blob, text); aerr != nil {
		c.log.Warn("recording not archived", "error", aerr)
	}
	return text, err
}

// Transcribe converts a recorded blob to text.
func (c *Core) Transcribe(ctx context.Context, blob *capture.Blob) (string, error) {
	if c.transcriber == nil {
		return "", ErrNoTranscriber
	}
	var audio transcribe.Audio
	if blob != nil {
		audio = transcribe.Audio{Data: blob.Data, MIMEType: blob.MIMEType}
	}
	text, err := c.transcriber.Transcribe(ctx, audio)
	if err != nil {
		c.log.Warn("transcription failed", "error", err)
		return "", err
	}
	return text, nil
}

// TakePhoto captures a camera snapshot and adds it to the pending
// attachments.
func (c *Core) TakePhoto(ctx context.Context) (upload.File, error) {
	photo, err := capture.Snapshot(ctx, c.camera)
	if err != nil {
		return upload.File{}, err
	}
	if _, aerr := c.archive.SavePhoto(ctx, photo); aerr != nil {
		c.log.Warn("photo not archived", "error", aerr)
	}
	f := upload.File{Name: photo.Name, MIMEType: photo.MIMEType, Data: photo.Data}
	accepted, rejected := c.addFiles([]upload.File{f})
	if len(rejected) > 0 {
		return upload.File{}, rejected[0].Err
	}
	if len(accepted) == 0 {
		return upload.File{}, fmt.Errorf("chatcore: photo %s was not accepted", f.Name)
	}
	return accepted[0], nil
}

// Reset discards the recording, the pending attachments, the transcript and
// the remote session. Queued turns are rejected.
func (c *Core) Reset() {
	if c.recorder != nil {
		c.recorder.Cancel()
	}
	c.mu.Lock()
	c.pending = nil
	c.entries = nil
	c.mu.Unlock()
	c.orch.Reset()
}

// Transcript returns a copy of the conversation so far.
func (c *Core) Transcript() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		e.Files = slices.Clone(e.Files)
		out[i] = e
	}
	return out
}

// Wait blocks until every sent turn has been settled in the transcript or
// ctx is done.
func (c *Core) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close discards any recording and waits for outstanding turns to settle.
// The orchestrator is not closed.
func (c *Core) Close(ctx context.Context) error {
	if c.recorder != nil {
		c.recorder.Cancel()
	}
	return c.Wait(ctx)
}
