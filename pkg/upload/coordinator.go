package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aita-solution/qper-threads-correct/pkg/assistants"
	"golang.org/x/sync/errgroup"
)

// FileUploader stores a file remotely and returns its record.
// *assistants.FileService implements it.
type FileUploader interface {
	Upload(ctx context.Context, file io.Reader, filename, contentType string, purpose assistants.FilePurpose) (*assistants.File, error)
}

// Uploaded is a file stored remotely.
type Uploaded struct {
	Name     string
	MIMEType string
	Size     int64
	FileID   string
	Purpose  assistants.FilePurpose

	// Cached is true when the id came from the upload cache.
	Cached bool
}

// IsImage reports whether the uploaded file is an image.
func (u Uploaded) IsImage() bool {
	return strings.HasPrefix(u.MIMEType, "image/")
}

// FileFailure is one file that failed to upload.
type FileFailure struct {
	Name string
	Err  error
}

// UploadError reports every file of a batch that failed to upload.
type UploadError struct {
	Failures []FileFailure
}

// Error implements the error interface.
func (e *UploadError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Name
	}
	if len(e.Failures) == 1 {
		return fmt.Sprintf("upload: %s failed: %v", names[0], e.Failures[0].Err)
	}
	return fmt.Sprintf("upload: %d files failed: %s", len(e.Failures), strings.Join(names, ", "))
}

// Unwrap returns the individual failures.
func (e *UploadError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// AsUploadError extracts *UploadError from an error.
func AsUploadError(err error) (*UploadError, bool) {
	var e *UploadError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Config configures a Coordinator.
type Config struct {
	// Files is the remote file store. Required.
	Files FileUploader

	// Limits is applied by Prepare. Defaults to GeneralLimits.
	Limits Limits

	// SkipCompression disables image re-encoding in Prepare.
	SkipCompression bool

	// Cache remembers uploaded content so identical files are not stored
	// twice. Optional.
	Cache Cache

	// Concurrency bounds parallel uploads. Zero means unbounded.
	Concurrency int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Coordinator validates, compresses and uploads attachments.
type Coordinator struct {
	files       FileUploader
	limits      Limits
	compress    bool
	cache       Cache
	concurrency int
	log         *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	limits := cfg.Limits
	if limits.MaxBytes == 0 {
		limits = GeneralLimits
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		files:       cfg.Files,
		limits:      limits,
		compress:    !cfg.SkipCompression,
		cache:       cfg.Cache,
		concurrency: cfg.Concurrency,
		log:         logger,
	}
}

// Limits returns the policy applied by Prepare.
func (c *Coordinator) Limits() Limits {
	return c.limits
}

// Prepare validates files and compresses images. Rejected files are logged
// and returned separately; the rest keep their order.
func (c *Coordinator) Prepare(files []File) ([]File, []Rejection) {
	var accepted []File
	var rejected []Rejection
	for _, f := range files {
		if err := Validate(f, c.limits); err != nil {
			c.log.Warn("attachment rejected", "file", f.Name, "type", f.MIMEType, "size", f.Size(), "limits", c.limits.Name, "error", err)
			rejected = append(rejected, Rejection{File: f, Err: err})
			continue
		}
		if c.compress {
			cf, err := Compress(f)
			if err != nil {
				c.log.Warn("attachment rejected", "file", f.Name, "error", err)
				rejected = append(rejected, Rejection{File: f, Err: err})
				continue
			}
			if cf.Size() != f.Size() {
				c.log.Debug("image compressed", "file", f.Name, "from", f.Size(), "to", cf.Size())
			}
			f = cf
		}
		accepted = append(accepted, f)
	}
	return accepted, rejected
}

// Upload stores all files concurrently and waits for every one to finish.
// If any upload fails the result is an *UploadError naming each failed
// file, and ids of files that did succeed are not returned.
//
// Files with identical content are uploaded once and share a remote id.
func (c *Coordinator) Upload(ctx context.Context, files []File) ([]Uploaded, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if c.files == nil {
		return nil, errors.New("upload: no file store configured")
	}

	digests := make([]string, len(files))
	first := make(map[string]int, len(files))
	for i, f := range files {
		d := f.Digest()
		digests[i] = d
		if _, ok := first[d]; !ok {
			first[d] = i
		}
	}

	results := make([]Uploaded, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, f := range files {
		if first[digests[i]] != i {
			continue
		}
		g.Go(func() error {
			results[i], errs[i] = c.uploadOne(ctx, f, digests[i])
			return nil
		})
	}
	_ = g.Wait()

	var failures []FileFailure
	for i, f := range files {
		src := first[digests[i]]
		if errs[src] != nil {
			failures = append(failures, FileFailure{Name: f.Name, Err: errs[src]})
			continue
		}
		if src != i {
			u := results[src]
			u.Name = f.Name
			results[i] = u
		}
	}
	if len(failures) > 0 {
		for _, f := range failures {
			c.log.Error("attachment upload failed", "file", f.Name, "error", f.Err)
		}
		return nil, &UploadError{Failures: failures}
	}
	return results, nil
}

func (c *Coordinator) uploadOne(ctx context.Context, f File, digest string) (Uploaded, error) {
	purpose := PurposeFor(f)
	u := Uploaded{
		Name:     f.Name,
		MIMEType: f.MIMEType,
		Size:     f.Size(),
		Purpose:  purpose,
	}

	if c.cache != nil {
		rec, err := c.cache.Get(ctx, digest)
		switch {
		case err == nil && rec.Purpose == string(purpose):
			u.FileID = rec.FileID
			u.Cached = true
			c.log.Debug("attachment upload cached", "file", f.Name, "file_id", rec.FileID)
			return u, nil
		case err != nil && !errors.Is(err, ErrNotCached):
			c.log.Warn("upload cache lookup failed", "file", f.Name, "error", err)
		}
	}

	start := time.Now()
	rf, err := c.files.Upload(ctx, bytes.NewReader(f.Data), f.Name, f.MIMEType, purpose)
	if err != nil {
		return Uploaded{}, err
	}
	u.FileID = rf.ID
	c.log.Info("attachment uploaded", "file", f.Name, "file_id", rf.ID, "size", f.Size(), "duration", time.Since(start))

	if c.cache != nil {
		rec := Record{
			FileID:     rf.ID,
			Filename:   f.Name,
			Purpose:    string(purpose),
			Size:       f.Size(),
			UploadedAt: time.Now(),
		}
		if err := c.cache.Put(ctx, digest, rec); err != nil {
			c.log.Warn("upload cache store failed", "file", f.Name, "error", err)
		}
	}
	return u, nil
}

// PurposeFor returns the upload purpose for a file: images are uploaded for
// vision input, everything else for retrieval.
func PurposeFor(f File) assistants.FilePurpose {
	if f.IsImage() {
		return assistants.PurposeVision
	}
	return assistants.PurposeAssistants
}
