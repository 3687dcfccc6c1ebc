package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkoosis/shopkit/pkg/offense"
)

func TestTerminal_SegmentsKeepText(t *testing.T) {
	r := NewTerminal(MonoTheme(), 80)
	out := r.Segments([]offense.Segment{
		{Kind: offense.SegmentError, Text: "\n[error]:"},
		{Kind: offense.SegmentBold, Text: "LiquidHTMLSyntaxError"},
		{Kind: offense.SegmentSubdued, Text: "\nmessage"},
		{Text: "\n\n2  Line2"},
	})
	assert.Contains(t, out, "[error]:")
	assert.Contains(t, out, "LiquidHTMLSyntaxError")
	assert.Contains(t, out, "2  Line2")
}

func TestTerminal_InfoIncludesHeadline(t *testing.T) {
	r := NewTerminal(MonoTheme(), 60)
	out := r.Info("sections/header.liquid", []offense.Segment{{Text: "body"}})
	assert.Contains(t, out, "sections/header.liquid")
	assert.Contains(t, out, "body")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTerminal_TableTitlesHeader(t *testing.T) {
	r := NewTerminal(MonoTheme(), 80)
	out := r.Table([2]string{"check", "severity"}, [][2]string{{"JSONSyntaxError", "error"}})
	assert.Contains(t, out, "Check")
	assert.Contains(t, out, "Severity")
	assert.Contains(t, out, "JSONSyntaxError")
}

func TestThemeByName(t *testing.T) {
	assert.Equal(t, "dark", ThemeByName("dark").Name)
	assert.Equal(t, "mono", ThemeByName("mono").Name)
	assert.Equal(t, "default", ThemeByName("nope").Name)
	assert.True(t, IsThemeName("dark"))
	assert.False(t, IsThemeName("nope"))
	assert.False(t, IsThemeName("orca"))
}

func TestNewTerminal_DefaultsWidth(t *testing.T) {
	r := NewTerminal(DefaultTheme(), 0)
	assert.Equal(t, 80, r.width)
	assert.Equal(t, "default", r.Theme().Name)
}
