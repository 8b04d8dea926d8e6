package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the configuration directory below $HOME.
	DefaultBaseDir = ".qper"
	// DefaultConfigFile is the configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Environment variables consulted when no context is configured.
const (
	EnvAPIKey      = "OPENAI_API_KEY"
	EnvAssistantID = "QPER_ASSISTANT_ID"
	EnvBaseURL     = "QPER_BASE_URL"
)

// ErrMissingCredentials is returned when a context lacks the API key or the
// assistant id.
var ErrMissingCredentials = errors.New("cli: missing credentials")

// Config is the on-disk configuration of a CLI app.
type Config struct {
	AppName string `yaml:"-"`

	CurrentContext string              `yaml:"current_context,omitempty"`
	Contexts       map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one named set of settings.
type Context struct {
	Name string `yaml:"name"`

	APIKey      string `yaml:"api_key,omitempty"`
	AssistantID string `yaml:"assistant_id,omitempty"`

	// BaseURL overrides the API endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// Model overrides the assistant's model on every run.
	Model string `yaml:"model,omitempty"`

	// Instructions are appended to the assistant's instructions on every run.
	Instructions string `yaml:"instructions,omitempty"`

	// TranscribeModel and Language configure speech recognition.
	TranscribeModel string `yaml:"transcribe_model,omitempty"`
	Language        string `yaml:"language,omitempty"`

	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout,omitempty"`

	PollIntervalMS int `yaml:"poll_interval_ms,omitempty"`
	MaxPollSeconds int `yaml:"max_poll_seconds,omitempty"`

	// UploadCacheDir enables the persistent upload cache.
	UploadCacheDir string `yaml:"upload_cache_dir,omitempty"`

	Archive *ArchiveConfig `yaml:"archive,omitempty"`
}

// ArchiveConfig selects where recordings and snapshots are archived. Dir
// wins over S3 when both are set.
type ArchiveConfig struct {
	Dir string    `yaml:"dir,omitempty"`
	S3  *S3Config `yaml:"s3,omitempty"`
}

// S3Config is an S3-compatible bucket.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

// LoadConfig loads the configuration of appName, creating an empty file on
// first use.
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from customPath, or from the
// default location when it is empty.
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("cli: home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return nil, fmt.Errorf("cli: create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("cli: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cli: parse %s: %w", configPath, err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, c := range cfg.Contexts {
		c.Name = name
	}
	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save writes the configuration with owner-only permissions; it contains
// API keys.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cli: marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("cli: write config: %w", err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext stores ctx under name, replacing any existing context. The
// first context added becomes current.
func (c *Config) AddContext(name string, ctx *Context) error {
	if name == "" {
		return errors.New("cli: context name is empty")
	}
	ctx.Name = name
	c.Contexts[name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = name
	}
	return c.Save()
}

// DeleteContext removes a context.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("cli: context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext makes name the current context.
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("cli: context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns the named context.
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("cli: context %q not found", name)
	}
	return ctx, nil
}

// ListContexts returns the context names in sorted order.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the named context, or the current one when name is empty.
// Without a current context the environment is used. Environment values
// also fill fields the chosen context leaves empty.
func (c *Config) Resolve(name string) (*Context, error) {
	var ctx *Context
	switch {
	case name != "":
		got, err := c.GetContext(name)
		if err != nil {
			return nil, err
		}
		ctx = got
	case c.CurrentContext != "":
		got, err := c.GetContext(c.CurrentContext)
		if err != nil {
			return nil, err
		}
		ctx = got
	default:
		ctx = &Context{Name: "env"}
	}
	out := *ctx
	out.applyEnv()
	return &out, nil
}

func (ctx *Context) applyEnv() {
	if ctx.APIKey == "" {
		ctx.APIKey = os.Getenv(EnvAPIKey)
	}
	if ctx.AssistantID == "" {
		ctx.AssistantID = os.Getenv(EnvAssistantID)
	}
	if ctx.BaseURL == "" {
		ctx.BaseURL = os.Getenv(EnvBaseURL)
	}
}

// Validate checks that the credentials needed for a conversation are set.
func (ctx *Context) Validate() error {
	var missing []string
	if ctx.APIKey == "" {
		missing = append(missing, "api_key ($"+EnvAPIKey+")")
	}
	if ctx.AssistantID == "" {
		missing = append(missing, "assistant_id ($"+EnvAssistantID+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: context %q has no %s", ErrMissingCredentials, ctx.Name, strings.Join(missing, ", "))
	}
	return nil
}

// RequestTimeout returns the HTTP timeout, or zero for the client default.
func (ctx *Context) RequestTimeout() time.Duration {
	return time.Duration(ctx.Timeout) * time.Second
}

// PollInterval returns the run polling interval, or zero for the default.
func (ctx *Context) PollInterval() time.Duration {
	return time.Duration(ctx.PollIntervalMS) * time.Millisecond
}

// MaxPoll returns the run polling bound, or zero for the default.
func (ctx *Context) MaxPoll() time.Duration {
	return time.Duration(ctx.MaxPollSeconds) * time.Second
}

// MaskAPIKey masks the key for display, keeping four characters at each end.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
