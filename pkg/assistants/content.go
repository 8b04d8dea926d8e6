package assistants

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ContentKind identifies which shape a message's content arrived in.
type ContentKind int

const (
	// ContentEmpty is content that was absent or null.
	ContentEmpty ContentKind = iota

	// ContentString is a plain string.
	ContentString

	// ContentPart is a single typed fragment.
	ContentPart

	// ContentParts is a sequence of typed fragments.
	ContentParts

	// ContentUnknown is any other JSON value.
	ContentUnknown
)

// String returns the kind name.
func (k ContentKind) String() string {
	switch k {
	case ContentEmpty:
		return "empty"
	case ContentString:
		return "string"
	case ContentPart:
		return "part"
	case ContentParts:
		return "parts"
	default:
		return "unknown"
	}
}

// Content is the content of a message. The service may return a plain string,
// a single typed fragment or a list of fragments; Content accepts all three.
type Content struct {
	Kind  ContentKind
	Str   string
	Parts []ContentFragment

	// Raw holds the original JSON when Kind is ContentUnknown.
	Raw json.RawMessage
}

// ContentFragment is one typed fragment of message content.
type ContentFragment struct {
	Type      string     `json:"type"`
	Text      *TextValue `json:"text,omitempty"`
	ImageFile *ImageFile `json:"image_file,omitempty"`
	ImageURL  *ImageURL  `json:"image_url,omitempty"`
}

// TextValue is the text payload of a fragment. On the wire it is either a
// bare string or an object with a value and annotations.
type TextValue struct {
	Value       string            `json:"value"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
}

// UnmarshalJSON accepts both the bare string and the object form.
func (t *TextValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		t.Annotations = nil
		return json.Unmarshal(data, &t.Value)
	}
	type plain TextValue
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = TextValue(p)
	return nil
}

// ImageFile references an uploaded image by file id.
type ImageFile struct {
	FileID string `json:"file_id"`
	Detail string `json:"detail,omitempty"`
}

// ImageURL references an external image.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// TextContent returns string content.
func TextContent(s string) Content {
	return Content{Kind: ContentString, Str: s}
}

// PartsContent returns fragment-list content.
func PartsContent(parts ...ContentFragment) Content {
	return Content{Kind: ContentParts, Parts: parts}
}

// TextFragment returns a text fragment.
func TextFragment(s string) ContentFragment {
	return ContentFragment{Type: "text", Text: &TextValue{Value: s}}
}

// ImageFileFragment returns an image_file fragment.
func ImageFileFragment(fileID string) ContentFragment {
	return ContentFragment{Type: "image_file", ImageFile: &ImageFile{FileID: fileID}}
}

// Text normalizes the content into display text. Strings are returned as is,
// text fragments are concatenated in order and non-text fragments skipped.
// The second value is false for shapes that carry no recognizable text.
func (c Content) Text() (string, bool) {
	switch c.Kind {
	case ContentString:
		return c.Str, true
	case ContentPart:
		if len(c.Parts) == 1 && c.Parts[0].Type == "text" && c.Parts[0].Text != nil {
			return c.Parts[0].Text.Value, true
		}
		return "", false
	case ContentParts:
		var sb strings.Builder
		for _, p := range c.Parts {
			if p.Type == "text" && p.Text != nil {
				sb.WriteString(p.Text.Value)
			}
		}
		return sb.String(), true
	default:
		return "", false
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*c = Content{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		c.Kind = ContentString
		return json.Unmarshal(data, &c.Str)
	case '[':
		var parts []ContentFragment
		if err := json.Unmarshal(data, &parts); err != nil {
			c.Kind = ContentUnknown
			c.Raw = append(json.RawMessage(nil), data...)
			return nil
		}
		c.Kind = ContentParts
		c.Parts = parts
		return nil
	case '{':
		var part ContentFragment
		if err := json.Unmarshal(data, &part); err != nil || part.Type == "" {
			c.Kind = ContentUnknown
			c.Raw = append(json.RawMessage(nil), data...)
			return nil
		}
		c.Kind = ContentPart
		c.Parts = []ContentFragment{part}
		return nil
	default:
		c.Kind = ContentUnknown
		c.Raw = append(json.RawMessage(nil), data...)
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ContentEmpty:
		return []byte("null"), nil
	case ContentString:
		return json.Marshal(c.Str)
	case ContentPart:
		if len(c.Parts) != 1 {
			return nil, fmt.Errorf("assistants: single-part content has %d parts", len(c.Parts))
		}
		return json.Marshal(c.Parts[0])
	case ContentParts:
		return json.Marshal(c.Parts)
	default:
		if len(c.Raw) == 0 {
			return []byte("null"), nil
		}
		return c.Raw, nil
	}
}

// MarshalJSON writes the bare string form, which is what the create
// endpoint accepts. Annotated text keeps the object form.
func (t TextValue) MarshalJSON() ([]byte, error) {
	if len(t.Annotations) == 0 {
		return json.Marshal(t.Value)
	}
	type plain TextValue
	return json.Marshal(plain(t))
}
