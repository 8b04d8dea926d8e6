package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Common MIME types accepted by the limits in this package.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEGIF  = "image/gif"
	MIMEPDF  = "application/pdf"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMECSV  = "text/csv"
)

// File is a local attachment waiting to be uploaded.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the size of the file in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// IsImage reports whether the file has an image MIME type.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MIMEType, "image/")
}

// Digest returns the hex sha256 of the file content.
func (f File) Digest() string {
	sum := sha256.Sum256(f.Data)
	return hex.EncodeToString(sum[:])
}

// ReadFile loads a file from disk and detects its MIME type.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("upload: read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return File{
		Name:     name,
		MIMEType: DetectMIME(name, data),
		Data:     data,
	}, nil
}

var extMIME = map[string]string{
	".jpg":  MIMEJPEG,
	".jpeg": MIMEJPEG,
	".png":  MIMEPNG,
	".gif":  MIMEGIF,
	".pdf":  MIMEPDF,
	".doc":  MIMEDOC,
	".docx": MIMEDOCX,
	".csv":  MIMECSV,
}

// DetectMIME returns the MIME type for a file, preferring the extension and
// falling back to content sniffing. Parameters such as charset are dropped.
func DetectMIME(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extMIME[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		t = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}
