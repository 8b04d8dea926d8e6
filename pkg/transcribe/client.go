package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultModel is the speech recognition model.
	DefaultModel = string(openai.AudioModelWhisper1)

	// DefaultLanguage is the language hint sent with every request.
	DefaultLanguage = "de"

	// MaxAudioBytes is the largest audio payload the service accepts.
	MaxAudioBytes = 25 << 20
)

// Audio is an encoded recording.
type Audio struct {
	Data     []byte
	Filename string
	MIMEType string
}

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

type config struct {
	baseURL    string
	httpClient *http.Client
	model      string
	language   string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

// WithModel overrides the transcription model.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithLanguage overrides the language hint. An empty value lets the service
// detect the language.
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Client transcribes recordings with the OpenAI audio API. Requests are
// never retried.
type Client struct {
	client   *openai.Client
	apiKey   string
	model    string
	language string
	log      *slog.Logger
}

var _ Transcriber = (*Client)(nil)

// NewClient creates a transcription client. An empty apiKey is accepted here
// and reported as CodeAPIConfig by Transcribe.
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := config{
		model:      DefaultModel,
		language:   DefaultLanguage,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &Client{
		client:   &client,
		apiKey:   apiKey,
		model:    cfg.model,
		language: cfg.language,
		log:      cfg.logger,
	}
}

// Transcribe returns the trimmed transcript of audio.
func (c *Client) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Code: CodeAPIConfig, Message: "API key is not configured"}
	}
	if len(audio.Data) == 0 {
		return "", &Error{Code: CodeNoAudioData, Message: "no audio data"}
	}
	if len(audio.Data) > MaxAudioBytes {
		return "", &Error{Code: CodeFileTooLarge, Message: fmt.Sprintf("audio is %d bytes, max %d", len(audio.Data), MaxAudioBytes)}
	}

	filename := audio.Filename
	if filename == "" {
		filename = "audio" + ExtensionFor(audio.MIMEType)
	}
	contentType := audio.MIMEType
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(audio.Data), filename, contentType),
		Model:          openai.AudioModel(c.model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}

	start := time.Now()
	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = strings.TrimSpace(fmt.Sprintf("Transcription error: %d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode)))
			}
			c.log.Error("transcription failed", "status", apiErr.StatusCode, "error", msg)
			return "", &Error{Code: CodeTranscription, Message: msg, HTTPStatus: apiErr.StatusCode, Err: err}
		}
		c.log.Error("transcription failed", "error", err)
		return "", &Error{Code: CodeTranscription, Message: err.Error(), Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &Error{Code: CodeEmptyTranscription, Message: "transcription is empty"}
	}
	c.log.Debug("transcribed", "bytes", len(audio.Data), "chars", len(text), "duration", time.Since(start))
	return text, nil
}

// ExtensionFor returns a file extension for an audio MIME type, so the
// service can detect the container from the upload name.
func ExtensionFor(mimeType string) string {
	mt := mimeType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	switch strings.TrimSpace(mt) {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".webm"
	}
}
