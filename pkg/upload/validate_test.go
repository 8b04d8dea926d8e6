package upload

import (
	"errors"
	"testing"
)

func sized(name, mimeType string, n int) File {
	return File{Name: name, MIMEType: mimeType, Data: make([]byte, n)}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		file   File
		limits Limits
		reason Reason
	}{
		{"21MB image rejected", sized("big.jpg", MIMEJPEG, 21<<20), GeneralLimits, ReasonTooLarge},
		{"3MB pdf accepted", sized("doc.pdf", MIMEPDF, 3<<20), GeneralLimits, ""},
		{"exe rejected", sized("setup.exe", "application/x-msdownload", 1024), GeneralLimits, ReasonUnsupported},
		{"exactly 20MB accepted", sized("edge.png", MIMEPNG, 20<<20), GeneralLimits, ""},
		{"csv general", sized("t.csv", MIMECSV, 10), GeneralLimits, ""},
		{"csv compact", sized("t.csv", MIMECSV, 10), CompactLimits, ReasonUnsupported},
		{"gif compact", sized("a.gif", MIMEGIF, 10), CompactLimits, ReasonUnsupported},
		{"6MB compact", sized("p.png", MIMEPNG, 6<<20), CompactLimits, ReasonTooLarge},
		{"docx general", sized("a.docx", MIMEDOCX, 10), GeneralLimits, ""},
		{"empty", sized("e.pdf", MIMEPDF, 0), GeneralLimits, ReasonEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file, tt.limits)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Reason != tt.reason {
				t.Errorf("Reason = %s, want %s", ve.Reason, tt.reason)
			}
			if ve.Limits != tt.limits.Name {
				t.Errorf("Limits = %s, want %s", ve.Limits, tt.limits.Name)
			}
		})
	}
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"photo.JPG", nil, MIMEJPEG},
		{"report.pdf", nil, MIMEPDF},
		{"letter.docx", nil, MIMEDOCX},
		{"data.csv", nil, MIMECSV},
		{"noext", []byte("%PDF-1.4\n"), MIMEPDF},
		{"noext", []byte("plain words"), "text/plain"},
	}
	for _, tt := range tests {
		if got := DetectMIME(tt.name, tt.data); got != tt.want {
			t.Errorf("DetectMIME(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
