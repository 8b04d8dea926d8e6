package assistants

import (
	"context"
	"errors"
	"net/http"
)

// RunService provides run operations.
type RunService struct {
	client *Client
}

// Create starts a run of the assistant on a thread.
func (s *RunService) Create(ctx context.Context, threadID string, req *RunRequest) (*Run, error) {
	if threadID == "" {
		return nil, errors.New("assistants: thread id is required")
	}
	if req == nil || req.AssistantID == "" {
		return nil, errors.New("assistants: assistant id is required")
	}

	var resp Run
	if err := s.client.http.request(ctx, http.MethodPost, "/threads/"+threadID+"/runs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get retrieves the current state of a run.
func (s *RunService) Get(ctx context.Context, threadID, runID string) (*Run, error) {
	var resp Run
	if err := s.client.http.request(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel requests cancellation of a run.
func (s *RunService) Cancel(ctx context.Context, threadID, runID string) (*Run, error) {
	var resp Run
	if err := s.client.http.request(ctx, http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/cancel", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
