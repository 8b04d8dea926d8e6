package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRequest reads a YAML or JSON request file into v. "-" reads stdin.
// Unknown fields are rejected so typos do not go unnoticed.
func LoadRequest(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("cli: read %s: %w", path, err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest decodes data by the extension of filename. Without a known
// extension JSON is tried for input starting with '{', YAML otherwise.
func ParseRequest(data []byte, filename string, v any) error {
	ext := strings.ToLower(filepath.Ext(filename))
	trimmed := bytes.TrimSpace(data)
	switch {
	case ext == ".json", ext == "" && len(trimmed) > 0 && trimmed[0] == '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("cli: parse JSON %s: %w", filename, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("cli: parse YAML %s: %w", filename, err)
		}
	}
	return nil
}
