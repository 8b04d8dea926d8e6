package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// Image compression parameters.
const (
	MaxImageWidth  = 1920
	MaxImageHeight = 1080
	JPEGQuality    = 70
)

// Compress re-encodes an image as JPEG, scaled down proportionally to fit
// within MaxImageWidth x MaxImageHeight. Non-image files are returned
// unchanged. The extension of the name is replaced by .jpg.
func Compress(f File) (File, error) {
	if !f.IsImage() {
		return f, nil
	}

	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return File{}, fmt.Errorf("upload: decode image %s: %w", f.Name, err)
	}

	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), MaxImageWidth, MaxImageHeight)

	var img image.Image = src
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return File{}, fmt.Errorf("upload: encode jpeg %s: %w", f.Name, err)
	}

	return File{
		Name:     jpegName(f.Name),
		MIMEType: MIMEJPEG,
		Data:     buf.Bytes(),
	}, nil
}

// FitWithin scales w x h down proportionally so both sides fit in maxW x maxH.
// Sizes already inside the box are returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Compare w/maxW against h/maxH without floats.
	if w*maxH >= h*maxW {
		nh := h * maxW / w
		return maxW, max(nh, 1)
	}
	nw := w * maxH / h
	return max(nw, 1), maxH
}

func jpegName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpg" || ext == ".jpeg" {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
