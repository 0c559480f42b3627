package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the terminal color scheme.
type Theme struct {
	Primary lipgloss.Color   // Main accent color
	Dim     lipgloss.Color   // Dimmed/help text color
	Palette []lipgloss.Color // Per-speaker colors, cycled by label
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Palette: []lipgloss.Color{
		"#ff6b6b", "#4ecdc4", "#ffe66d", "#a8dadc",
		"#b388ff", "#f4a261", "#90be6d", "#f48fb1",
	},
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style

	theme Theme
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		theme:  t,
	}
}

// Speaker returns the style for a speaker label, cycling the palette.
func (s Styles) Speaker(label int) lipgloss.Style {
	if len(s.theme.Palette) == 0 || label < 0 {
		return s.Label
	}
	return lipgloss.NewStyle().Foreground(s.theme.Palette[label%len(s.theme.Palette)])
}

// SpeakerBar renders one speaker's share of total talk time as a
// colored proportional bar:
//
//	speaker_0  ███████░░░  68%  1m23.5s
func (s Styles) SpeakerBar(label int, seconds, total float64, width int) string {
	if width <= 0 {
		width = 10
	}
	share := 0.0
	if total > 0 {
		share = seconds / total
	}
	filled := min(int(share*float64(width)+0.5), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	style := s.Speaker(label)
	return fmt.Sprintf("%s  %s  %3.0f%%  %s",
		style.Render(fmt.Sprintf("speaker_%-3d", label)),
		style.Render(bar),
		share*100,
		s.Help.Render(FormatSeconds(seconds)))
}

// Box renders lines inside a rounded border with an embedded title:
//
//	╭─ title ──────╮
//	│ line         │
//	╰──────────────╯
func (s Styles) Box(title string, lines []string, width int) string {
	if width < 8 {
		width = 8
	}
	bc := s.Border
	maxContentWidth := width - 4

	titleText := s.Title.Render(title)
	pad := max(0, width-4-lipgloss.Width(titleText))
	out := []string{
		bc.Render("╭─") + titleText + bc.Render(strings.Repeat("─", pad)+"─╮"),
	}

	for _, text := range lines {
		if lipgloss.Width(text) > maxContentWidth {
			text = truncateString(text, maxContentWidth-1) + "…"
		}
		out = append(out, bc.Render("│")+" "+text+
			strings.Repeat(" ", max(0, maxContentWidth-lipgloss.Width(text)))+" "+bc.Render("│"))
	}

	out = append(out, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	return strings.Join(out, "\n")
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width {
			return string(runes[:i])
		}
		currentWidth += w
	}
	return s
}
