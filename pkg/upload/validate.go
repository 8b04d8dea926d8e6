package upload

import (
	"fmt"
	"slices"

	"github.com/aita-solution/qper-threads-correct/pkg/cli"
)

// Limits is a named attachment policy: a size ceiling and a MIME allow-list.
type Limits struct {
	Name     string
	MaxBytes int64
	Allowed  []string
}

// GeneralLimits applies to files picked by the user or taken with the camera.
var GeneralLimits = Limits{
	Name:     "general",
	MaxBytes: 20 << 20,
	Allowed:  []string{MIMEJPEG, MIMEPNG, MIMEGIF, MIMEPDF, MIMEDOC, MIMEDOCX, MIMECSV},
}

// CompactLimits applies to attachments sent inline with a chat message.
var CompactLimits = Limits{
	Name:     "compact",
	MaxBytes: 5 << 20,
	Allowed:  []string{MIMEJPEG, MIMEPNG, MIMEPDF, MIMEDOC},
}

// Allows reports whether the MIME type is on the allow-list.
func (l Limits) Allows(mimeType string) bool {
	return slices.Contains(l.Allowed, mimeType)
}

// Reason is why a file was rejected.
type Reason string

const (
	ReasonTooLarge    Reason = "too_large"
	ReasonUnsupported Reason = "unsupported_type"
	ReasonEmpty       Reason = "empty"
)

// ValidationError reports a file that violates a Limits policy.
type ValidationError struct {
	File   string
	Reason Reason
	Size   int64
	Type   string
	Limits string
	Max    int64
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonTooLarge:
		return fmt.Sprintf("upload: %s is too large (%s, max %s)", e.File, cli.FormatBytes(e.Size), cli.FormatBytes(e.Max))
	case ReasonUnsupported:
		return fmt.Sprintf("upload: %s has unsupported type %q", e.File, e.Type)
	default:
		return fmt.Sprintf("upload: %s is empty", e.File)
	}
}

// Validate checks f against limits.
func Validate(f File, limits Limits) error {
	if f.Size() == 0 {
		return &ValidationError{File: f.Name, Reason: ReasonEmpty, Type: f.MIMEType, Limits: limits.Name, Max: limits.MaxBytes}
	}
	if f.Size() > limits.MaxBytes {
		return &ValidationError{File: f.Name, Reason: ReasonTooLarge, Size: f.Size(), Type: f.MIMEType, Limits: limits.Name, Max: limits.MaxBytes}
	}
	if !limits.Allows(f.MIMEType) {
		return &ValidationError{File: f.Name, Reason: ReasonUnsupported, Size: f.Size(), Type: f.MIMEType, Limits: limits.Name, Max: limits.MaxBytes}
	}
	return nil
}

// Rejection is a file that did not pass validation.
type Rejection struct {
	File File
	Err  error
}
