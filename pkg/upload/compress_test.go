package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{800, 600, 800, 600},
		{1920, 1080, 1920, 1080},
		{3840, 2160, 1920, 1080},
		{4000, 2000, 1920, 960},
		{1080, 1920, 607, 1080},
		{3000, 1080, 1920, 691},
		{100000, 10, 1920, 1},
	}
	for _, tt := range tests {
		w, h := FitWithin(tt.w, tt.h, MaxImageWidth, MaxImageHeight)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("FitWithin(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 7 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCompressScalesImage(t *testing.T) {
	f := File{Name: "wide.png", MIMEType: MIMEPNG, Data: encodePNG(t, 2400, 1200)}

	out, err := Compress(f)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if out.MIMEType != MIMEJPEG {
		t.Errorf("MIMEType = %s", out.MIMEType)
	}
	if out.Name != "wide.jpg" {
		t.Errorf("Name = %s", out.Name)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 1920 || cfg.Height != 960 {
		t.Errorf("size = %dx%d, want 1920x960", cfg.Width, cfg.Height)
	}
}

func TestCompressKeepsSmallImageSize(t *testing.T) {
	f := File{Name: "small.png", MIMEType: MIMEPNG, Data: encodePNG(t, 64, 32)}
	out, err := Compress(f)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 32 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestCompressPassesThroughDocuments(t *testing.T) {
	f := File{Name: "a.pdf", MIMEType: MIMEPDF, Data: []byte("%PDF-1.4")}
	out, err := Compress(f)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if out.Name != f.Name || !bytes.Equal(out.Data, f.Data) {
		t.Error("document was modified")
	}
}

func TestCompressRejectsCorruptImage(t *testing.T) {
	f := File{Name: "broken.jpg", MIMEType: MIMEJPEG, Data: []byte("not a jpeg")}
	if _, err := Compress(f); err == nil {
		t.Fatal("expected error")
	}
}
