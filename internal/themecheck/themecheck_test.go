package themecheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/shopkit/pkg/offense"
)

func liquid(src string) *File {
	return &File{AbsolutePath: "/theme/sections/x.liquid", Key: "sections/x.liquid", Type: offense.SourceLiquidHTML, Source: src}
}

func messages(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Message)
	}
	return out
}

func TestLiquidSyntaxCheck(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"balanced", "{% if a %}<p>{{ a }}</p>{% endif %}", []string{}},
		{"whitespace control", "{%- for x in xs -%}{{- x -}}{%- endfor -%}", []string{}},
		{"unclosed block", "{% if a %}<p></p>", []string{"Tag 'if' was never closed"}},
		{"mismatched end", "{% for x in xs %}{% endif %}{% endfor %}", []string{"Attempting to close tag 'if' when tag 'for' is still open"}},
		{"stray end", "{% endcapture %}", []string{"Attempting to close tag 'capture' which was never opened"}},
		{"unclosed output", "<p>{{ a </p>", []string{"Output '{{' was not closed"}},
		{"unclosed tag", "<p>{% if a </p>", []string{"Tag '{%' was not closed"}},
		{"raw body ignored", "{% raw %}{% if %}{% endraw %}", []string{}},
		{"schema body ignored", "{% schema %}{\"name\": \"{{ x\"}{% endschema %}", []string{}},
		{"unterminated comment", "{% comment %} todo", []string{"Tag 'comment' was never closed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messages(liquidSyntaxCheck{}.Run(liquid(tt.src))))
		})
	}
}

func TestJSONSyntaxCheck(t *testing.T) {
	valid := &File{Type: offense.SourceJSON, Source: "/*\n * generated\n */\n{\"sections\": {}}"}
	assert.Empty(t, jsonSyntaxCheck{}.Run(valid))

	invalid := &File{Type: offense.SourceJSON, Source: "{\n  \"a\": 1,\n}"}
	findings := jsonSyntaxCheck{}.Run(invalid)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "Invalid JSON")
	assert.Equal(t, 2, positionAt(invalid.Source, findings[0].Start).Line)
}

func TestParserBlockingScriptCheck(t *testing.T) {
	src := `<script src="a.js"></script>
<script src="b.js" defer></script>
<script type="module" src="c.js"></script>
<script>inline()</script>
{{ 'd.js' | asset_url | script_tag }}`

	findings := parserBlockingScriptCheck{}.Run(liquid(src))
	require.Len(t, findings, 2)
	assert.Equal(t, 0, positionAt(src, findings[0].Start).Line)
	assert.Contains(t, findings[1].Message, "script_tag")
	assert.Equal(t, 4, positionAt(src, findings[1].Start).Line)
}

func TestImgWidthAndHeightCheck(t *testing.T) {
	src := `<img src="a.png" width="10" height="10">
<img src="b.png" width="10">
<img src="c.png">`

	assert.Equal(t, []string{
		"Missing height attribute",
		"Missing width and height attributes",
	}, messages(imgWidthAndHeightCheck{}.Run(liquid(src))))
}

func TestUnusedAssignCheck(t *testing.T) {
	src := `{% assign used = 1 %}
{% assign unused = 2 %}
{% assign _private = 3 %}
{% liquid
  assign also_unused = 4
%}
{{ used }}`

	assert.Equal(t, []string{"`unused` is never used", "`also_unused` is never used"}, messages(unusedAssignCheck{}.Run(liquid(src))))
}

func TestPositionAt(t *testing.T) {
	src := "ab\ncd\nef"
	assert.Equal(t, offense.Position{Index: 0, Line: 0, Character: 0}, positionAt(src, 0))
	assert.Equal(t, offense.Position{Index: 4, Line: 1, Character: 1}, positionAt(src, 4))
	assert.Equal(t, offense.Position{Index: 8, Line: 2, Character: 2}, positionAt(src, 99))
}

func writeTheme(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func TestRun_CollectsOffensesAcrossFiles(t *testing.T) {
	root := writeTheme(t, map[string]string{
		"layout/theme.liquid":       "<html>{% if a %}</html>",
		"templates/index.json":      "{",
		"snippets/ok.liquid":        "<p>{{ a }}</p>",
		"assets/app.js":             "ignored",
		"node_modules/pkg/x.liquid": "{% if %}",
		".git/hooks/x.liquid":       "{% if %}",
		"sections/header.liquid":    `<img src="x">`,
		"config/settings_data.json": `{"current": "Default"}`,
	})

	res, err := Run(context.Background(), root, nil, Options{Jobs: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, res.FilesInspected)

	byFile := offense.Sort(res.Offenses)
	require.Len(t, byFile, 3)
	assert.Equal(t, "LiquidHTMLSyntaxError", byFile[filepath.Join(root, "layout", "theme.liquid")][0].Check)
	assert.Equal(t, offense.SourceJSON, byFile[filepath.Join(root, "templates", "index.json")][0].Type)
	assert.Equal(t, offense.SeveritySuggestion, byFile[filepath.Join(root, "sections", "header.liquid")][0].Severity)
}

func TestRun_HonorsConfig(t *testing.T) {
	root := writeTheme(t, map[string]string{
		"sections/header.liquid": `<img src="x">{% if a %}`,
		"vendor/lib.liquid":      `{% if a %}`,
		ConfigFileName:           `ignore:
  - vendor/**
ImgWidthAndHeight:
  enabled: false
LiquidHTMLSyntaxError:
  severity: warning
`,
	})

	cfg, err := LoadConfig(root)
	require.NoError(t, err)

	res, err := Run(context.Background(), root, cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesInspected)
	require.Len(t, res.Offenses, 1)
	assert.Equal(t, "LiquidHTMLSyntaxError", res.Offenses[0].Check)
	assert.Equal(t, offense.SeverityWarning, res.Offenses[0].Severity)
}

func TestRun_CanceledContext(t *testing.T) {
	root := writeTheme(t, map[string]string{"a.liquid": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, root, nil, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConfig_Defaults_When_Missing(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Checks)
	assert.Empty(t, cfg.Ignore)
}

func TestParseConfig_ReportsEveryProblem(t *testing.T) {
	_, err := ParseConfig(".theme-check.yml", []byte(`NoSuchCheck:
  enabled: true
UnusedAssign:
  severity: fatal
`))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Problems, 2)
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern, rel string
		want         bool
	}{
		{"vendor/**", "vendor/a/b.liquid", true},
		{"vendor/**", "vendors/a.liquid", false},
		{"**/*.min.liquid", "snippets/x.min.liquid", true},
		{"**/*.min.liquid", "x.min.liquid", true},
		{"snippets/*.liquid", "snippets/a.liquid", true},
		{"snippets/*.liquid", "sections/a.liquid", false},
		{"**/vendor/**", "assets/vendor/x.js", true},
		{"**/vendor/**", "assets/vendors/x.js", false},
		{"assets/**/*.min.js", "assets/vendor/lib/x.min.js", true},
		{"assets/**/*.min.js", "assets/x.min.js", true},
		{"templates/**/customers/*.liquid", "templates/a/b/customers/x.liquid", true},
		{"templates/**/customers/*.liquid", "templates/a/b/x.liquid", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchGlob(tt.pattern, tt.rel), "%s vs %s", tt.pattern, tt.rel)
	}
}

func TestParseConfig_BadIgnorePattern(t *testing.T) {
	_, err := ParseConfig(".theme-check.yml", []byte("ignore:\n  - \"assets/[a-\"\n"))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Len(t, cfgErr.Problems, 1)
	assert.Contains(t, cfgErr.Problems[0], "assets/[a-")
}

func TestParseConfig_Extends(t *testing.T) {
	tests := []struct {
		name        string
		extends     string
		wantEnabled []string
	}{
		{"recommended", ExtendsRecommended, CheckNames()},
		{"all", ExtendsAll, CheckNames()},
		{"nothing keeps explicit checks only", ExtendsNothing, []string{"JSONSyntaxError"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig(".theme-check.yml", []byte("extends: "+tt.extends+"\nJSONSyntaxError:\n  enabled: true\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.extends, cfg.Extends)

			var enabled []string
			for name, cc := range cfg.Effective().Checks {
				if *cc.Enabled {
					enabled = append(enabled, name)
				}
			}
			assert.ElementsMatch(t, tt.wantEnabled, enabled)
		})
	}

	_, err := ParseConfig(".theme-check.yml", []byte("extends: theme-check:strict\n"))
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Problems[0], "theme-check:strict")
}

func TestRun_IgnoresNestedDoubleStar(t *testing.T) {
	root := writeTheme(t, map[string]string{
		"assets/vendor/lib/broken.liquid": "{% if x %}",
		"snippets/broken.liquid":          "{% if x %}",
	})
	cfg := DefaultConfig()
	cfg.Ignore = []string{"**/vendor/**"}

	res, err := Run(context.Background(), root, cfg, Options{})
	require.NoError(t, err)

	require.Len(t, res.Offenses, 1)
	assert.Equal(t, filepath.Join(root, "snippets", "broken.liquid"), res.Offenses[0].AbsolutePath)
}

func TestInitConfig(t *testing.T) {
	root := t.TempDir()

	res, err := InitConfig(root)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Created .theme-check.yml at "+root, res.Message())

	cfg, err := LoadConfig(root)
	require.NoError(t, err)
	assert.Len(t, cfg.Checks, len(CheckNames()))
	assert.Equal(t, []string{"node_modules/**"}, cfg.Ignore)

	res, err = InitConfig(root)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, ".theme-check.yml already exists at "+root, res.Message())
}

func TestDefaultSeverity(t *testing.T) {
	assert.Equal(t, offense.SeverityError, DefaultSeverity("JSONSyntaxError"))
	assert.Equal(t, offense.SeverityWarning, DefaultSeverity("ParserBlockingScript"))
	assert.Equal(t, offense.SeverityInfo, DefaultSeverity("Nope"))
}

func TestConfigEffective(t *testing.T) {
	cfg, err := ParseConfig(".theme-check.yml", []byte("UnusedAssign:\n  enabled: false\nParserBlockingScript:\n  severity: error\n"))
	require.NoError(t, err)

	eff := cfg.Effective()

	require.Len(t, eff.Checks, len(CheckNames()))
	assert.False(t, *eff.Checks["UnusedAssign"].Enabled)
	assert.Equal(t, "error", eff.Checks["ParserBlockingScript"].Severity)
	assert.True(t, *eff.Checks["ImgWidthAndHeight"].Enabled)
	assert.Equal(t, "suggestion", eff.Checks["ImgWidthAndHeight"].Severity)
	assert.Len(t, cfg.Checks, 2)
}
