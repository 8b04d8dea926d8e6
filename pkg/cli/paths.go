package cli

import (
	"os"
	"path/filepath"
)

// Paths locates the files of an app below ~/.qper/<app>.
type Paths struct {
	AppName string
	HomeDir string
}

// NewPaths returns the Paths of appName for the current user.
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{AppName: appName, HomeDir: home}, nil
}

// AppDir is ~/.qper/<app>.
func (p *Paths) AppDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir, p.AppName)
}

// ConfigFile is ~/.qper/<app>/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// UploadCacheDir is the default badger directory of the upload cache.
func (p *Paths) UploadCacheDir() string {
	return filepath.Join(p.AppDir(), "cache", "uploads")
}

// ArchiveDir is the default local archive.
func (p *Paths) ArchiveDir() string {
	return filepath.Join(p.AppDir(), "archive")
}

// Expand resolves a leading "~/" against HomeDir.
func (p *Paths) Expand(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		return filepath.Join(p.HomeDir, path[2:])
	}
	return path
}
