package assistants

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// httpClient handles HTTP communication with the Assistants API.
type httpClient struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	betaHeader string
}

func newHTTPClient(cfg *clientConfig) *httpClient {
	return &httpClient{
		client:     cfg.httpClient,
		baseURL:    strings.TrimRight(cfg.baseURL, "/"),
		apiKey:     cfg.apiKey,
		betaHeader: cfg.betaHeader,
	}
}

// request performs a single JSON request. body and result may be nil.
func (h *httpClient) request(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("assistants: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("assistants: create request: %w", err)
	}

	h.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return &transportError{op: method + " " + path, err: err}
	}
	defer resp.Body.Close()

	return h.handleResponse(resp, result)
}

// uploadFile uploads a file using multipart form data. The body is streamed
// through a pipe so the file is never held twice in memory.
func (h *httpClient) uploadFile(ctx context.Context, path string, file io.Reader, filename, contentType string, fields map[string]string, result any) error {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()

		for key, value := range fields {
			if err := writer.WriteField(key, value); err != nil {
				errCh <- fmt.Errorf("write field %s: %w", key, err)
				pw.CloseWithError(err)
				return
			}
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			errCh <- fmt.Errorf("create form file: %w", err)
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			errCh <- fmt.Errorf("copy file: %w", err)
			pw.CloseWithError(err)
			return
		}

		if err := writer.Close(); err != nil {
			errCh <- fmt.Errorf("close writer: %w", err)
			pw.CloseWithError(err)
			return
		}

		errCh <- nil
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("assistants: create request: %w", err)
	}

	h.setHeaders(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return &transportError{op: "POST " + path, err: err}
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return fmt.Errorf("assistants: %w", writeErr)
	}

	return h.handleResponse(resp, result)
}

func (h *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	if h.betaHeader != "" {
		req.Header.Set("OpenAI-Beta", h.betaHeader)
	}
	req.Header.Set("User-Agent", "qper-go/1.0")
}

func (h *httpClient) handleResponse(resp *http.Response, result any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transportError{op: "read response body", err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(body, resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("assistants: unmarshal response: %w", err)
		}
	}

	return nil
}

// parseError converts an error response body into *Error. The server error
// object is used when present, otherwise the raw body becomes the message.
func parseError(body []byte, httpStatus int) error {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	e := &Error{
		HTTPStatus: httpStatus,
		Body:       string(body),
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		e.Message = envelope.Error.Message
		e.Type = envelope.Error.Type
		if envelope.Error.Code != nil {
			e.Code = fmt.Sprint(envelope.Error.Code)
		}
	}
	if e.Message == "" {
		e.Message = "API request failed"
	}
	return e
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
