package assistants

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// MessageService provides thread message operations.
type MessageService struct {
	client *Client
}

// Create posts a message to a thread. Role defaults to user.
func (s *MessageService) Create(ctx context.Context, threadID string, req *MessageRequest) (*Message, error) {
	if threadID == "" {
		return nil, errors.New("assistants: thread id is required")
	}
	if req == nil {
		return nil, errors.New("assistants: message request is required")
	}
	body := *req
	if body.Role == "" {
		body.Role = RoleUser
	}

	var resp Message
	if err := s.client.http.request(ctx, http.MethodPost, "/threads/"+threadID+"/messages", &body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List lists messages of a thread, newest first unless opts says otherwise.
func (s *MessageService) List(ctx context.Context, threadID string, opts *ListOptions) (*MessageList, error) {
	if threadID == "" {
		return nil, errors.New("assistants: thread id is required")
	}

	q := url.Values{}
	order := OrderDesc
	if opts != nil {
		if opts.Order != "" {
			order = opts.Order
		}
		if opts.Limit > 0 {
			q.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.After != "" {
			q.Set("after", opts.After)
		}
		if opts.Before != "" {
			q.Set("before", opts.Before)
		}
		if opts.RunID != "" {
			q.Set("run_id", opts.RunID)
		}
	}
	q.Set("order", string(order))

	var resp MessageList
	if err := s.client.http.request(ctx, http.MethodGet, "/threads/"+threadID+"/messages?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
