package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"time"
)

// SnapshotQuality is the JPEG quality of camera snapshots.
const SnapshotQuality = 90

// Camera captures still frames.
type Camera interface {
	Capture(ctx context.Context) (image.Image, error)
}

// ImageFileCamera is a Camera that "captures" an image file from disk.
type ImageFileCamera struct {
	Path string
}

// Capture implements Camera.
func (c ImageFileCamera) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Path, err)
	}
	return img, nil
}

// Photo is an encoded camera snapshot.
type Photo struct {
	Name     string
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// Snapshot captures one frame and encodes it as photo-<unix ms>.jpg.
// Failures are returned as CAMERA_ERROR.
func Snapshot(ctx context.Context, cam Camera) (*Photo, error) {
	if cam == nil {
		return nil, newError(CodeCamera, "no camera configured", nil)
	}
	img, err := cam.Capture(ctx)
	if err != nil {
		return nil, newError(CodeCamera, "cannot capture image", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: SnapshotQuality}); err != nil {
		return nil, newError(CodeCamera, "cannot encode image", err)
	}
	b := img.Bounds()
	return &Photo{
		Name:     fmt.Sprintf("photo-%d.jpg", time.Now().UnixMilli()),
		MIMEType: "image/jpeg",
		Data:     buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}
