package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type turnResult struct {
	TurnID string `json:"turn_id" yaml:"turn_id"`
	Text   string `json:"text" yaml:"text"`
}

func TestOutputFormats(t *testing.T) {
	res := turnResult{TurnID: "t1", Text: "Grüße & <mehr>"}

	var js bytes.Buffer
	if err := Output(res, OutputOptions{Format: FormatJSON, Writer: &js}); err != nil {
		t.Fatal(err)
	}
	var back turnResult
	if err := json.Unmarshal(js.Bytes(), &back); err != nil || back != res {
		t.Fatalf("json round trip = %+v, %v", back, err)
	}
	if !strings.Contains(js.String(), "<mehr>") {
		t.Errorf("html escaped: %s", js.String())
	}

	var y bytes.Buffer
	if err := Output(res, OutputOptions{Format: FormatYAML, Writer: &y}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(y.String(), "turn_id: t1") {
		t.Errorf("yaml = %s", y.String())
	}

	var txt bytes.Buffer
	if err := Output("just text", OutputOptions{Format: FormatText, Writer: &txt}); err != nil {
		t.Fatal(err)
	}
	if txt.String() != "just text\n" {
		t.Errorf("text = %q", txt.String())
	}

	if err := Output(res, OutputOptions{Format: "xml", Writer: &txt}); err == nil {
		t.Error("xml accepted")
	}
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Output(map[string]int{"n": 1}, OutputOptions{Format: FormatJSON, File: path}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"n": 1`) {
		t.Errorf("file = %s", data)
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatYAML, "yaml": FormatYAML, "json": FormatJSON, "text": FormatText} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseOutputFormat("table"); err == nil {
		t.Error("table accepted")
	}
}
