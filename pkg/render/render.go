// Package render turns shopkit's styled segments and summaries into terminal
// output via lipgloss.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/shopkit/pkg/offense"
)

// Terminal renders output for a terminal of a given width.
type Terminal struct {
	theme Theme
	width int
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width}
}

// Theme returns the renderer's theme.
func (t *Terminal) Theme() Theme { return t.theme }

// Segments styles and concatenates segments.
func (t *Terminal) Segments(segments []offense.Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		sb.WriteString(t.style(s.Kind).Render(s.Text))
	}
	return sb.String()
}

func (t *Terminal) style(kind offense.SegmentKind) lipgloss.Style {
	switch kind {
	case offense.SegmentError:
		return t.theme.Error
	case offense.SegmentWarn:
		return t.theme.Warning
	case offense.SegmentInfo:
		return t.theme.Info
	case offense.SegmentBold:
		return t.theme.Bold
	case offense.SegmentSubdued:
		return t.theme.Muted
	default:
		return lipgloss.NewStyle()
	}
}

// Info renders a bordered panel with a headline above the body.
func (t *Terminal) Info(headline string, body []offense.Segment) string {
	inner := t.width - 4
	if inner < 20 {
		inner = 20
	}
	head := runewidth.Truncate(headline, inner, "...")
	content := t.theme.Bold.Render(head) + "\n" + t.Segments(body)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.theme.Border).
		Padding(0, 1).
		Width(inner)
	return box.Render(strings.TrimRight(content, "\n")) + "\n"
}

// Success renders a one-line success message.
func (t *Terminal) Success(msg string) string {
	return t.theme.Success.Render(t.theme.Icons.Pass+" "+msg) + "\n"
}

// Warn renders a one-line warning message.
func (t *Terminal) Warn(msg string) string {
	return t.theme.Warning.Render(t.theme.Icons.Warn+" "+msg) + "\n"
}

// Lines joins summary lines under a bold heading.
func (t *Terminal) Lines(heading string, lines []string) string {
	var sb strings.Builder
	if heading != "" {
		sb.WriteString(t.theme.Bold.Render(heading))
		sb.WriteString("\n")
	}
	for _, l := range lines {
		sb.WriteString(l)
		if !strings.HasSuffix(l, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Table renders name/value rows with the name column padded to display width.
// Header labels are title-cased.
func (t *Terminal) Table(header [2]string, rows [][2]string) string {
	title := cases.Title(language.English)
	maxName := runewidth.StringWidth(header[0])
	for _, r := range rows {
		if w := runewidth.StringWidth(r[0]); w > maxName {
			maxName = w
		}
	}
	if maxName > 50 {
		maxName = 50
	}

	var sb strings.Builder
	sb.WriteString(t.theme.Bold.Render(padRight(title.String(header[0]), maxName) + "  " + title.String(header[1])))
	sb.WriteString("\n")
	for _, r := range rows {
		name := runewidth.Truncate(r[0], maxName, "...")
		sb.WriteString(t.theme.Primary.Render(padRight(name, maxName)))
		sb.WriteString("  ")
		sb.WriteString(t.theme.Muted.Render(r[1]))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
