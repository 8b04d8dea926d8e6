package assistants

import (
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default Assistants API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultBetaHeader is the feature-version header value sent on
	// thread, message, run and file endpoints.
	DefaultBetaHeader = "assistants=v2"
)

// Client is the Assistants API client.
//
// Every service method issues exactly one HTTP request. The client does not
// retry or sequence calls; that is left to the caller.
type Client struct {
	// Threads provides thread (session) operations.
	Threads *ThreadService

	// Files provides file upload operations.
	Files *FileService

	// Messages provides thread message operations.
	Messages *MessageService

	// Runs provides run operations.
	Runs *RunService

	config *clientConfig
	http   *httpClient
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey     string
	baseURL    string
	betaHeader string
	httpClient *http.Client
	timeout    time.Duration
}

// Option is a function that configures the client.
type Option func(*clientConfig)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithBetaHeader overrides the OpenAI-Beta header value.
func WithBetaHeader(value string) Option {
	return func(c *clientConfig) {
		c.betaHeader = value
	}
}

// NewClient creates a new Assistants API client.
//
// Example:
//
//	client := assistants.NewClient("sk-...")
//	thread, err := client.Threads.Create(ctx)
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		betaHeader: DefaultBetaHeader,
		timeout:    DefaultTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
	}

	c := &Client{
		config: cfg,
		http:   newHTTPClient(cfg),
	}

	c.Threads = &ThreadService{client: c}
	c.Files = &FileService{client: c}
	c.Messages = &MessageService{client: c}
	c.Runs = &RunService{client: c}

	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.baseURL
}
