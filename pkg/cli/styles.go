package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color scheme of the interactive chat.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Error   lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the default theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Accent:  lipgloss.Color("#58a6ff"),
	Error:   lipgloss.Color("#ff6b6b"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Title     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Badge     lipgloss.Style
	Body      lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		User:      lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Error:     lipgloss.NewStyle().Foreground(t.Error),
		Help:      lipgloss.NewStyle().Foreground(t.Dim),
		Badge:     lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
		Body:      lipgloss.NewStyle().PaddingLeft(2),
	}
}

// Message renders a labelled chat message wrapped to width. A width of zero
// disables wrapping.
func (s Styles) Message(label string, labelStyle lipgloss.Style, text string, width int) string {
	body := s.Body
	if width > 4 {
		body = body.Width(width - 2)
	}
	return labelStyle.Render(label) + "\n" + body.Render(strings.TrimRight(text, "\n"))
}

// Attachments renders a list of "name (size)" badges.
func (s Styles) Attachments(items []string) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = s.Badge.Render("📎 " + it)
	}
	return strings.Join(parts, "  ")
}
