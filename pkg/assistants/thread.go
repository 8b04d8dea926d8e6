package assistants

import (
	"context"
	"net/http"
)

// ThreadService provides thread operations.
type ThreadService struct {
	client *Client
}

// Create creates an empty thread.
func (s *ThreadService) Create(ctx context.Context) (*Thread, error) {
	var resp Thread
	if err := s.client.http.request(ctx, http.MethodPost, "/threads", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete deletes a thread.
func (s *ThreadService) Delete(ctx context.Context, threadID string) error {
	var resp DeleteResult
	return s.client.http.request(ctx, http.MethodDelete, "/threads/"+threadID, nil, &resp)
}
