package archive

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aita-solution/qper-threads-correct/pkg/capture"
)

// Archiver writes captured media to a Store.
//
// A nil *Archiver is valid and archives nothing, so callers can keep the
// feature optional without branching.
type Archiver struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New returns an Archiver backed by store. A nil logger uses slog.Default().
func New(store Store, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{store: store, logger: logger, now: time.Now}
}

// Store returns the underlying store.
func (a *Archiver) Store() Store {
	if a == nil {
		return nil
	}
	return a.store
}

// SaveRecording stores blob under recordings/<yyyy>/<mm>/<dd>/<id><ext>.
// A non-empty transcript is written next to it with a .txt suffix.
// Empty recordings are skipped.
func (a *Archiver) SaveRecording(ctx context.Context, blob *capture.Blob, transcript string) (string, error) {
	if a == nil || blob == nil || len(blob.Data) == 0 {
		return "", nil
	}
	key := a.key("recordings", uuid.NewString()+extensionFor(blob.MIMEType))
	if err := a.store.Put(ctx, key, blob.Data, blob.MIMEType); err != nil {
		a.logger.Warn("archive recording failed", "key", key, "error", err)
		return "", err
	}
	if t := strings.TrimSpace(transcript); t != "" {
		if err := a.store.Put(ctx, key+".txt", []byte(t+"\n"), "text/plain; charset=utf-8"); err != nil {
			a.logger.Warn("archive transcript failed", "key", key, "error", err)
			return key, err
		}
	}
	a.logger.Debug("recording archived", "key", key, "bytes", len(blob.Data), "duration", blob.Duration)
	return key, nil
}

// SavePhoto stores a snapshot under photos/<yyyy>/<mm>/<dd>/<name>.
func (a *Archiver) SavePhoto(ctx context.Context, photo *capture.Photo) (string, error) {
	if a == nil || photo == nil || len(photo.Data) == 0 {
		return "", nil
	}
	name := path.Base(photo.Name)
	if name == "." || name == "/" || name == "" {
		name = uuid.NewString() + ".jpg"
	}
	key := a.key("photos", name)
	if err := a.store.Put(ctx, key, photo.Data, photo.MIMEType); err != nil {
		a.logger.Warn("archive photo failed", "key", key, "error", err)
		return "", err
	}
	a.logger.Debug("photo archived", "key", key, "bytes", len(photo.Data))
	return key, nil
}

func (a *Archiver) key(kind, name string) string {
	t := a.now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s", kind, t.Year(), t.Month(), t.Day(), name)
}

func extensionFor(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(base) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4":
		return ".m4a"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".bin"
	}
}
