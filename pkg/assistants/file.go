package assistants

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// FileService provides file operations.
type FileService struct {
	client *Client
}

// Upload uploads a file as multipart form data and returns its record.
// contentType may be empty.
func (s *FileService) Upload(ctx context.Context, file io.Reader, filename, contentType string, purpose FilePurpose) (*File, error) {
	if filename == "" {
		return nil, errors.New("assistants: filename is required")
	}
	if purpose == "" {
		purpose = PurposeAssistants
	}

	var resp File
	fields := map[string]string{"purpose": string(purpose)}
	if err := s.client.http.uploadFile(ctx, "/files", file, filename, contentType, fields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete deletes an uploaded file.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	var resp DeleteResult
	return s.client.http.request(ctx, http.MethodDelete, "/files/"+fileID, nil, &resp)
}
