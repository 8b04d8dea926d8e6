package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/archive"
	"github.com/aita-solution/qper-threads-correct/pkg/assistants"
	"github.com/aita-solution/qper-threads-correct/pkg/capture"
	"github.com/aita-solution/qper-threads-correct/pkg/chat"
	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/cli"
	"github.com/aita-solution/qper-threads-correct/pkg/transcribe"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

// uploadCacheTTL stays below the lifetime of remote files.
const uploadCacheTTL = 7 * 24 * time.Hour

// createClient creates an assistants client from a context.
func createClient(ctx *cli.Context) *assistants.Client {
	var opts []assistants.Option
	if ctx.BaseURL != "" {
		opts = append(opts, assistants.WithBaseURL(ctx.BaseURL))
	}
	if t := ctx.RequestTimeout(); t > 0 {
		opts = append(opts, assistants.WithTimeout(t))
	}
	return assistants.NewClient(ctx.APIKey, opts...)
}

// createTranscriber creates a speech recognition client from a context.
func createTranscriber(ctx *cli.Context) *transcribe.Client {
	opts := []transcribe.Option{transcribe.WithLogger(slog.Default())}
	if ctx.BaseURL != "" {
		opts = append(opts, transcribe.WithBaseURL(ctx.BaseURL))
	}
	if ctx.TranscribeModel != "" {
		opts = append(opts, transcribe.WithModel(ctx.TranscribeModel))
	}
	if ctx.Language != "" {
		opts = append(opts, transcribe.WithLanguage(ctx.Language))
	}
	return transcribe.NewClient(ctx.APIKey, opts...)
}

// openUploadCache opens the persistent cache, or returns nil when the
// context has none configured.
func openUploadCache(ctx *cli.Context) (upload.Cache, error) {
	if ctx.UploadCacheDir == "" {
		return nil, nil
	}
	dir := ctx.UploadCacheDir
	if paths, err := cli.NewPaths(appName); err == nil {
		dir = paths.Expand(dir)
	}
	return upload.OpenBadgerCache(upload.BadgerCacheOptions{
		Dir:    dir,
		TTL:    uploadCacheTTL,
		Logger: slog.Default(),
	})
}

// createCoordinator creates an upload coordinator sharing client and cache.
func createCoordinator(client *assistants.Client, cache upload.Cache, limits upload.Limits) *upload.Coordinator {
	return upload.NewCoordinator(upload.Config{
		Files:       client.Files,
		Limits:      limits,
		Cache:       cache,
		Concurrency: 4,
		Logger:      slog.Default(),
	})
}

// createOrchestrator creates a conversation orchestrator from a context.
func createOrchestrator(ctx *cli.Context, client *assistants.Client, up chat.Uploader) (*chat.Orchestrator, error) {
	return chat.New(chat.Config{
		Remote:          chat.NewRemote(client),
		Uploader:        up,
		AssistantID:     ctx.AssistantID,
		Model:           ctx.Model,
		Instructions:    ctx.Instructions,
		PollInterval:    ctx.PollInterval(),
		MaxPollDuration: ctx.MaxPoll(),
		Logger:          slog.Default(),
	})
}

// createArchiver returns the configured archive, or nil.
func createArchiver(ctx *cli.Context) (*archive.Archiver, error) {
	a := ctx.Archive
	if a == nil {
		return nil, nil
	}
	switch {
	case a.Dir != "":
		dir := a.Dir
		if paths, err := cli.NewPaths(appName); err == nil {
			dir = paths.Expand(dir)
		}
		store, err := archive.NewLocal(dir)
		if err != nil {
			return nil, err
		}
		return archive.New(store, slog.Default()), nil
	case a.S3 != nil && a.S3.Bucket != "":
		client := archive.NewS3Client(archive.S3Config{
			Bucket:    a.S3.Bucket,
			Region:    a.S3.Region,
			Endpoint:  a.S3.Endpoint,
			AccessKey: a.S3.AccessKey,
			SecretKey: a.S3.SecretKey,
			PathStyle: a.S3.PathStyle,
		})
		return archive.New(archive.NewS3(client, a.S3.Bucket, a.S3.Prefix), slog.Default()), nil
	default:
		return nil, nil
	}
}

// micFlags are shared by commands that record audio.
type micFlags struct {
	command     string
	input       string
	format      string
	maxDuration time.Duration
}

func (m *micFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&m.command, "mic-command", "arecord -q -f S16_LE -r {rate} -c {channels} -t raw", "recorder command writing raw PCM to stdout")
	f.StringVar(&m.input, "mic-input", "", "read audio from a WAV/PCM file instead (- for stdin)")
	f.StringVar(&m.format, "mic-format", "16000:1", "capture format rate[:channels]")
	f.DurationVar(&m.maxDuration, "max-duration", capture.DefaultMaxDuration, "stop recording automatically after this long")
}

func (m *micFlags) microphone() (capture.Microphone, error) {
	if m.input != "" {
		return capture.FileMicrophone(m.input), nil
	}
	fields := strings.Fields(m.command)
	if len(fields) == 0 {
		return nil, errors.New("--mic-command is empty")
	}
	return capture.CommandMicrophone(fields[0], fields[1:]...), nil
}

func (m *micFlags) recorder(onAutoStop func(*capture.Blob, error)) (*capture.Recorder, error) {
	mic, err := m.microphone()
	if err != nil {
		return nil, err
	}
	format, err := capture.ParseFormat(m.format)
	if err != nil {
		return nil, err
	}
	c := capture.DefaultConstraints()
	c.Format = format
	return capture.NewRecorder(capture.Config{
		Microphone:  mic,
		Constraints: &c,
		MaxDuration: m.maxDuration,
		OnAutoStop:  onAutoStop,
		Logger:      slog.Default(),
	}), nil
}

// stack is everything a conversation needs, built from one context.
type stack struct {
	client *assistants.Client
	cache  upload.Cache
	coord  *upload.Coordinator
	orch   *chat.Orchestrator
	core   *chatcore.Core
}

type stackOptions struct {
	limits   upload.Limits
	recorder *capture.Recorder
	camera   capture.Camera
	onEntry  func(chatcore.Entry)
}

func newStack(ctx *cli.Context, opts stackOptions) (*stack, error) {
	s := &stack{client: createClient(ctx)}

	cache, err := openUploadCache(ctx)
	if err != nil {
		return nil, err
	}
	s.cache = cache
	s.coord = createCoordinator(s.client, cache, opts.limits)

	s.orch, err = createOrchestrator(ctx, s.client, s.coord)
	if err != nil {
		s.close()
		return nil, err
	}
	arch, err := createArchiver(ctx)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("archive: %w", err)
	}
	s.core, err = chatcore.New(chatcore.Config{
		Orchestrator: s.orch,
		Coordinator:  s.coord,
		Recorder:     opts.recorder,
		Transcriber:  createTranscriber(ctx),
		Camera:       opts.camera,
		Archive:      arch,
		OnEntry:      opts.onEntry,
		Logger:       slog.Default(),
	})
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *stack) close() {
	if s.orch != nil {
		_ = s.orch.Close()
	}
	if s.core != nil {
		waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = s.core.Close(waitCtx)
		cancel()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Warn("close upload cache", "error", err)
		}
	}
}

// readFiles loads attachments from disk.
func readFiles(paths []string) ([]upload.File, error) {
	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		f, err := upload.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// fileSummary renders "name (size)".
func fileSummary(f upload.File) string {
	return fmt.Sprintf("%s (%s)", f.Name, cli.FormatBytes(f.Size()))
}
