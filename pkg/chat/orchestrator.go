package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aita-solution/qper-threads-correct/pkg/assistants"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// Polling defaults.
const (
	DefaultPollInterval    = time.Second
	DefaultMaxPollDuration = 5 * time.Minute
)

// Config configures an Orchestrator.
type Config struct {
	// Remote is the assistants API. Required.
	Remote Remote

	// Uploader uploads attachments. Turns with files fail without it.
	Uploader Uploader

	// AssistantID is the assistant every run is started with. Required.
	AssistantID string

	// Model overrides the assistant's model for each run.
	Model string

	// Instructions are appended to the assistant instructions of each run.
	Instructions string

	PollInterval    time.Duration
	MaxPollDuration time.Duration

	// Fallback replaces DefaultFallback.
	Fallback string

	Logger *slog.Logger
}

// Orchestrator owns a conversation session and runs submitted turns one at a
// time in submission order.
//
// For each turn it makes sure a session exists, uploads the attachments,
// posts the message, starts a run, polls it until completed or failed and
// resolves the turn with the newest assistant message. A failed turn is
// rejected with *TurnError and the next turn starts regardless.
type Orchestrator struct {
	remote       Remote
	uploader     Uploader
	assistantID  string
	model        string
	instructions string
	pollInterval time.Duration
	maxPoll      time.Duration
	fallback     string
	log          *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	queue   []*Pending
	current *Pending
	running bool
	closed  bool

	sessMu  sync.Mutex
	session string
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Remote == nil {
		return nil, errors.New("chat: Remote is required")
	}
	if cfg.AssistantID == "" {
		return nil, errors.New("chat: AssistantID is required")
	}
	o := &Orchestrator{
		remote:       cfg.Remote,
		uploader:     cfg.Uploader,
		assistantID:  cfg.AssistantID,
		model:        cfg.Model,
		instructions: cfg.Instructions,
		pollInterval: cfg.PollInterval,
		maxPoll:      cfg.MaxPollDuration,
		fallback:     cfg.Fallback,
		log:          cfg.Logger,
	}
	if o.pollInterval <= 0 {
		o.pollInterval = DefaultPollInterval
	}
	if o.maxPoll <= 0 {
		o.maxPoll = DefaultMaxPollDuration
	}
	if o.fallback == "" {
		o.fallback = DefaultFallback
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	o.ctx, o.cancel = context.WithCancel(context.Background())
	return o, nil
}

// Fallback returns the text shown in place of a failed reply.
func (o *Orchestrator) Fallback() string {
	return o.fallback
}

// Init creates the session eagerly. It is a no-op if one exists.
func (o *Orchestrator) Init(ctx context.Context) error {
	_, err := o.ensureSession(ctx)
	return err
}

// SessionID returns the current session id, or "" if none exists.
func (o *Orchestrator) SessionID() string {
	o.sessMu.Lock()
	defer o.sessMu.Unlock()
	return o.session
}

// Busy reports whether a turn is in flight or queued.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil || len(o.queue) > 0
}

// Queued returns the number of turns waiting behind the one in flight.
func (o *Orchestrator) Queued() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Submit enqueues a turn and returns its handle. It never blocks on the
// network.
func (o *Orchestrator) Submit(text string, files []upload.File) *Pending {
	p := newPending(text, files)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.reject(p, ErrClosed)
		return p
	}
	o.queue = append(o.queue, p)
	if !o.running {
		o.running = true
		o.wg.Add(1)
		go o.work()
	}
	o.mu.Unlock()

	o.log.Debug("turn queued", "turn", p.id, "text", summarize(p.text), "files", len(files))
	return p
}

// Reset discards the session and rejects every queued turn with ErrReset.
// A turn already in flight completes against the old session. The next turn
// creates a new session.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	queued := o.queue
	o.queue = nil
	o.mu.Unlock()

	for _, p := range queued {
		o.reject(p, ErrReset)
	}

	o.sessMu.Lock()
	old := o.session
	o.session = ""
	o.sessMu.Unlock()

	o.log.Info("conversation reset", "session", old, "dropped", len(queued))
}

// Close rejects queued turns with ErrClosed, aborts the turn in flight and
// waits for the worker to exit. Turns submitted afterwards are rejected.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	queued := o.queue
	o.queue = nil
	o.mu.Unlock()

	for _, p := range queued {
		o.reject(p, ErrClosed)
	}
	o.cancel()
	o.wg.Wait()
	return nil
}

func (o *Orchestrator) work() {
	defer o.wg.Done()
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.running = false
			o.current = nil
			o.mu.Unlock()
			return
		}
		p := o.queue[0]
		o.queue[0] = nil
		o.queue = o.queue[1:]
		o.current = p
		o.mu.Unlock()

		reply, err := o.process(o.ctx, p)
		if err != nil {
			o.reject(p, err)
			continue
		}
		p.settle(reply, nil)
		o.log.Info("turn completed", "turn", p.id, "run", reply.RunID, "chars", len(reply.Text), "duration", reply.Duration)
	}
}

func (o *Orchestrator) reject(p *Pending, err error) {
	te := &TurnError{TurnID: p.id, Fallback: o.fallback, Err: err}
	if !p.settle(nil, te) {
		return
	}
	level := slog.LevelError
	if errors.Is(err, ErrReset) || errors.Is(err, ErrClosed) {
		level = slog.LevelInfo
	}
	o.log.Log(context.Background(), level, "turn failed",
		"turn", p.id,
		"text", summarize(p.text),
		"files", len(p.files),
		"code", ErrorCode(err),
		"error", err,
	)
}

func (o *Orchestrator) ensureSession(ctx context.Context) (string, error) {
	o.sessMu.Lock()
	defer o.sessMu.Unlock()
	if o.session != "" {
		return o.session, nil
	}
	th, err := o.remote.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if th.ID == "" {
		return "", errors.New("create session: empty thread id")
	}
	o.session = th.ID
	o.log.Info("session created", "session", th.ID)
	return th.ID, nil
}

func (o *Orchestrator) process(ctx context.Context, p *Pending) (*Reply, error) {
	if strings.TrimSpace(p.text) == "" && len(p.files) == 0 {
		return nil, ErrEmptyTurn
	}
	start := time.Now()

	threadID, err := o.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	var files []upload.Uploaded
	if len(p.files) > 0 {
		if o.uploader == nil {
			return nil, errors.New("chat: attachments given but no uploader configured")
		}
		files, err = o.uploader.Upload(ctx, p.files)
		if err != nil {
			return nil, err
		}
	}

	if _, err := o.remote.CreateMessage(ctx, threadID, buildMessage(p.text, files)); err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}

	run, err := o.remote.CreateRun(ctx, threadID, &assistants.RunRequest{
		AssistantID:            o.assistantID,
		Model:                  o.model,
		AdditionalInstructions: o.instructions,
	})
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	o.log.Debug("run started", "turn", p.id, "session", threadID, "run", run.ID, "status", run.Status)

	if err := o.waitRun(ctx, threadID, run); err != nil {
		return nil, err
	}

	list, err := o.remote.ListMessages(ctx, threadID, &assistants.ListOptions{Order: assistants.OrderDesc, Limit: 20})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	msg := latestAssistant(list.Data)
	if msg == nil {
		return nil, ErrNoReply
	}
	text, ok := msg.Content.Text()
	if !ok {
		o.log.Warn("unhandled message content", "turn", p.id, "message", msg.ID, "kind", msg.Content.Kind.String())
	}

	return &Reply{
		TurnID:   p.id,
		ThreadID: threadID,
		RunID:    run.ID,
		Text:     text,
		Message:  msg,
		Messages: list.Data,
		Files:    files,
		Duration: time.Since(start),
	}, nil
}

// waitRun polls a run every pollInterval until it is completed or failed.
// The status returned on creation counts as the first observation. Any other
// status keeps polling until maxPoll elapses.
func (o *Orchestrator) waitRun(ctx context.Context, threadID string, run *assistants.Run) error {
	if done, err := o.runOutcome(run); done {
		return err
	}

	deadline := time.NewTimer(o.maxPoll)
	defer deadline.Stop()
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			o.cancelRun(threadID, run.ID)
			return fmt.Errorf("%w: run %s still %s after %s", ErrRunTimeout, run.ID, run.Status, o.maxPoll)
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := o.remote.GetRun(ctx, threadID, run.ID)
			if err != nil {
				return fmt.Errorf("poll run: %w", err)
			}
			run = r
			if done, err := o.runOutcome(run); done {
				return err
			}
			o.log.Debug("run pending", "run", run.ID, "status", run.Status)
		}
	}
}

func (o *Orchestrator) runOutcome(run *assistants.Run) (bool, error) {
	switch run.Status {
	case assistants.RunCompleted:
		return true, nil
	case assistants.RunFailed:
		e := &RunFailedError{RunID: run.ID, Status: run.Status}
		if run.LastError != nil {
			e.Code = run.LastError.Code
			e.Message = run.LastError.Message
		}
		return true, e
	}
	return false, nil
}

// cancelRun asks the service to stop a run that outlived the poll bound.
func (o *Orchestrator) cancelRun(threadID, runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := o.remote.CancelRun(ctx, threadID, runID); err != nil {
		o.log.Warn("cancel run failed", "run", runID, "error", err)
	}
}

func latestAssistant(msgs []assistants.Message) *assistants.Message {
	for i := range msgs {
		if msgs[i].Role == assistants.RoleAssistant {
			return &msgs[i]
		}
	}
	return nil
}

func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const maxLen = 40
	if r := []rune(s); len(r) > maxLen {
		return string(r[:maxLen]) + "…"
	}
	return s
}
