package chat

import (
	"context"
	"sync"
	"time"

	"github.com/aita-solution/qper-threads-correct/pkg/assistants"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
	"github.com/google/uuid"
)

// Reply is the result of a successful turn.
type Reply struct {
	TurnID   string
	ThreadID string
	RunID    string

	// Text is the normalized text of the assistant message.
	Text string

	// Message is the assistant message the text was taken from.
	Message *assistants.Message

	// Messages is the newest-first page the reply was selected from.
	Messages []assistants.Message

	// Files are the attachments sent with the turn.
	Files []upload.Uploaded

	Duration time.Duration
}

// Pending is the settle-once handle of a submitted turn.
type Pending struct {
	id        string
	text      string
	files     []upload.File
	submitted time.Time

	once  sync.Once
	done  chan struct{}
	reply *Reply
	err   error
}

func newPending(text string, files []upload.File) *Pending {
	return &Pending{
		id:        uuid.New().String(),
		text:      text,
		files:     files,
		submitted: time.Now(),
		done:      make(chan struct{}),
	}
}

// ID returns the turn id.
func (p *Pending) ID() string { return p.id }

// Text returns the submitted text.
func (p *Pending) Text() string { return p.text }

// Done is closed once the turn is settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the turn is settled or ctx is done. Cancelling ctx does
// not cancel the turn.
func (p *Pending) Wait(ctx context.Context) (*Reply, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome of a settled turn. It must only be called after
// Done is closed.
func (p *Pending) Result() (*Reply, error) {
	return p.reply, p.err
}

func (p *Pending) settle(r *Reply, err error) bool {
	settled := false
	p.once.Do(func() {
		p.reply, p.err = r, err
		close(p.done)
		settled = true
	})
	return settled
}
