package cli

import (
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	p := &Paths{AppName: "qper", HomeDir: "/home/u"}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"app", p.AppDir(), filepath.Join("/home/u", ".qper", "qper")},
		{"config", p.ConfigFile(), filepath.Join("/home/u", ".qper", "qper", "config.yaml")},
		{"cache", p.UploadCacheDir(), filepath.Join("/home/u", ".qper", "qper", "cache", "uploads")},
		{"archive", p.ArchiveDir(), filepath.Join("/home/u", ".qper", "qper", "archive")},
		{"expand", p.Expand("~/rec"), filepath.Join("/home/u", "rec")},
		{"absolute", p.Expand("/var/rec"), "/var/rec"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
