package chat

import (
	"context"

	"github.com/aita-solution/qper-threads-correct/pkg/assistants"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// Remote is the part of the assistants API an Orchestrator drives.
type Remote interface {
	CreateThread(ctx context.Context) (*assistants.Thread, error)
	CreateMessage(ctx context.Context, threadID string, req *assistants.MessageRequest) (*assistants.Message, error)
	CreateRun(ctx context.Context, threadID string, req *assistants.RunRequest) (*assistants.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*assistants.Run, error)
	CancelRun(ctx context.Context, threadID, runID string) (*assistants.Run, error)
	ListMessages(ctx context.Context, threadID string, opts *assistants.ListOptions) (*assistants.MessageList, error)
}

// Uploader uploads a turn's attachments. *upload.Coordinator implements it.
type Uploader interface {
	Upload(ctx context.Context, files []upload.File) ([]upload.Uploaded, error)
}

// NewRemote adapts an assistants client to Remote.
func NewRemote(c *assistants.Client) Remote {
	return clientRemote{c}
}

type clientRemote struct {
	c *assistants.Client
}

func (r clientRemote) CreateThread(ctx context.Context) (*assistants.Thread, error) {
	return r.c.Threads.Create(ctx)
}

func (r clientRemote) CreateMessage(ctx context.Context, threadID string, req *assistants.MessageRequest) (*assistants.Message, error) {
	return r.c.Messages.Create(ctx, threadID, req)
}

func (r clientRemote) CreateRun(ctx context.Context, threadID string, req *assistants.RunRequest) (*assistants.Run, error) {
	return r.c.Runs.Create(ctx, threadID, req)
}

func (r clientRemote) GetRun(ctx context.Context, threadID, runID string) (*assistants.Run, error) {
	return r.c.Runs.Get(ctx, threadID, runID)
}

func (r clientRemote) CancelRun(ctx context.Context, threadID, runID string) (*assistants.Run, error) {
	return r.c.Runs.Cancel(ctx, threadID, runID)
}

func (r clientRemote) ListMessages(ctx context.Context, threadID string, opts *assistants.ListOptions) (*assistants.MessageList, error) {
	return r.c.Messages.List(ctx, threadID, opts)
}

// buildMessage builds the message body for a turn. Images are referenced as
// image_file content parts; other files are attached for file search.
func buildMessage(text string, files []upload.Uploaded) *assistants.MessageRequest {
	req := &assistants.MessageRequest{Role: assistants.RoleUser}

	var images []assistants.ContentFragment
	for _, f := range files {
		if f.IsImage() {
			images = append(images, assistants.ImageFileFragment(f.FileID))
			continue
		}
		req.Attachments = append(req.Attachments, assistants.Attachment{
			FileID: f.FileID,
			Tools:  []assistants.Tool{{Type: "file_search"}},
		})
	}

	if len(images) == 0 {
		req.Content = assistants.TextContent(text)
		return req
	}
	var parts []assistants.ContentFragment
	if text != "" {
		parts = append(parts, assistants.TextFragment(text))
	}
	req.Content = assistants.PartsContent(append(parts, images...)...)
	return req
}
