package themecheck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dkoosis/shopkit/pkg/offense"
)

// File is one theme source file handed to checks.
type File struct {
	AbsolutePath string
	Key          string // slash-separated path relative to the theme root
	Type         offense.SourceType
	Source       string
}

// Finding is a check result before severity and file are attached.
type Finding struct {
	Message    string
	Start, End int // byte offsets into File.Source
}

// Check inspects one file.
type Check interface {
	Name() string
	Severity() offense.Severity
	Applies(offense.SourceType) bool
	Run(f *File) []Finding
}

func allChecks() []Check {
	return []Check{
		liquidSyntaxCheck{},
		jsonSyntaxCheck{},
		parserBlockingScriptCheck{},
		imgWidthAndHeightCheck{},
		unusedAssignCheck{},
	}
}

// CheckNames lists the available checks in run order.
func CheckNames() []string {
	checks := allChecks()
	names := make([]string, len(checks))
	for i, ch := range checks {
		names[i] = ch.Name()
	}
	return names
}

// DefaultSeverity is the severity a check reports at unless configured
// otherwise. Unknown names report info.
func DefaultSeverity(name string) offense.Severity {
	if ch, ok := checkByName(name); ok {
		return ch.Severity()
	}
	return offense.SeverityInfo
}

func checkByName(name string) (Check, bool) {
	for _, ch := range allChecks() {
		if ch.Name() == name {
			return ch, true
		}
	}
	return nil, false
}

// positionAt converts a byte offset into a zero-based row/column position.
func positionAt(src string, index int) offense.Position {
	if index > len(src) {
		index = len(src)
	}
	if index < 0 {
		index = 0
	}
	line := strings.Count(src[:index], "\n")
	col := index - (strings.LastIndexByte(src[:index], '\n') + 1)
	return offense.Position{Index: index, Line: line, Character: col}
}

// LiquidHTMLSyntaxError

var liquidBlockTags = map[string]bool{
	"if": true, "unless": true, "for": true, "case": true, "capture": true,
	"form": true, "paginate": true, "tablerow": true, "schema": true,
	"style": true, "javascript": true, "stylesheet": true,
	"comment": true, "raw": true,
}

// Tags whose body is not parsed as Liquid.
var liquidRawTags = map[string]bool{"raw": true, "comment": true, "schema": true, "javascript": true}

type liquidSyntaxCheck struct{}

func (liquidSyntaxCheck) Name() string                      { return "LiquidHTMLSyntaxError" }
func (liquidSyntaxCheck) Severity() offense.Severity        { return offense.SeverityError }
func (liquidSyntaxCheck) Applies(t offense.SourceType) bool { return t == offense.SourceLiquidHTML }

type openTag struct {
	name       string
	start, end int
}

func (liquidSyntaxCheck) Run(f *File) []Finding {
	src := f.Source
	var findings []Finding
	var stack []openTag

	for i := 0; i < len(src); {
		next := strings.IndexByte(src[i:], '{')
		if next < 0 || i+next+1 >= len(src) {
			break
		}
		start := i + next
		switch src[start+1] {
		case '{':
			closeAt := strings.Index(src[start+2:], "}}")
			if closeAt < 0 {
				findings = append(findings, Finding{Message: "Output '{{' was not closed", Start: start, End: len(src)})
				return findings
			}
			i = start + 2 + closeAt + 2
		case '%':
			closeAt := strings.Index(src[start+2:], "%}")
			if closeAt < 0 {
				findings = append(findings, Finding{Message: "Tag '{%' was not closed", Start: start, End: len(src)})
				return findings
			}
			end := start + 2 + closeAt + 2
			name := tagName(src[start+2 : end-2])
			i = end

			switch {
			case liquidRawTags[name]:
				closeEnd, ok := findEndTag(src, end, name)
				if !ok {
					findings = append(findings, Finding{Message: fmt.Sprintf("Tag '%s' was never closed", name), Start: start, End: end})
					i = len(src)
					continue
				}
				i = closeEnd
			case liquidBlockTags[name]:
				stack = append(stack, openTag{name: name, start: start, end: end})
			case strings.HasPrefix(name, "end") && liquidBlockTags[strings.TrimPrefix(name, "end")]:
				want := strings.TrimPrefix(name, "end")
				if len(stack) == 0 {
					findings = append(findings, Finding{Message: fmt.Sprintf("Attempting to close tag '%s' which was never opened", want), Start: start, End: end})
					continue
				}
				top := stack[len(stack)-1]
				if top.name != want {
					findings = append(findings, Finding{Message: fmt.Sprintf("Attempting to close tag '%s' when tag '%s' is still open", want, top.name), Start: start, End: end})
					continue
				}
				stack = stack[:len(stack)-1]
			}
		default:
			i = start + 1
		}
	}

	for _, open := range stack {
		findings = append(findings, Finding{Message: fmt.Sprintf("Tag '%s' was never closed", open.name), Start: open.start, End: open.end})
	}
	return findings
}

// tagName extracts the tag name from the inside of a {% ... %} delimiter.
func tagName(inner string) string {
	inner = strings.TrimSpace(strings.Trim(inner, "-"))
	if i := strings.IndexAny(inner, " \t\r\n"); i >= 0 {
		inner = inner[:i]
	}
	return inner
}

// findEndTag returns the offset just past {% end<name> %} at or after from.
func findEndTag(src string, from int, name string) (int, bool) {
	for i := from; i < len(src); {
		open := strings.Index(src[i:], "{%")
		if open < 0 {
			return 0, false
		}
		start := i + open
		closeAt := strings.Index(src[start+2:], "%}")
		if closeAt < 0 {
			return 0, false
		}
		end := start + 2 + closeAt + 2
		if tagName(src[start+2:end-2]) == "end"+name {
			return end, true
		}
		i = end
	}
	return 0, false
}

// JSONSyntaxError

type jsonSyntaxCheck struct{}

func (jsonSyntaxCheck) Name() string                      { return "JSONSyntaxError" }
func (jsonSyntaxCheck) Severity() offense.Severity        { return offense.SeverityError }
func (jsonSyntaxCheck) Applies(t offense.SourceType) bool { return t == offense.SourceJSON }

func (jsonSyntaxCheck) Run(f *File) []Finding {
	data := blankLeadingComment([]byte(f.Source))
	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return nil
	}

	var syntaxErr *json.SyntaxError
	offset := len(data)
	if errors.As(err, &syntaxErr) {
		offset = int(syntaxErr.Offset)
	}
	start := max(offset-1, 0)
	return []Finding{{Message: "Invalid JSON: " + err.Error(), Start: start, End: offset}}
}

// blankLeadingComment replaces a leading /* ... */ block, which theme JSON
// templates allow, with spaces so offsets are preserved.
func blankLeadingComment(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("/*")) {
		return data
	}
	start := len(data) - len(trimmed)
	end := bytes.Index(data[start:], []byte("*/"))
	if end < 0 {
		return data
	}
	end += start + 2
	out := bytes.Clone(data)
	for i := start; i < end; i++ {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}
	return out
}

// ParserBlockingScript

var (
	scriptTagRe       = regexp.MustCompile(`(?is)<script\b[^>]*>`)
	scriptTagFilterRe = regexp.MustCompile(`\{\{[^}]*\|\s*script_tag\b[^}]*\}\}`)
	srcAttrRe         = regexp.MustCompile(`(?i)\ssrc\s*=`)
	asyncDeferRe      = regexp.MustCompile(`(?i)\s(async|defer)\b`)
	moduleTypeRe      = regexp.MustCompile(`(?i)\stype\s*=\s*["']?module\b`)
)

type parserBlockingScriptCheck struct{}

func (parserBlockingScriptCheck) Name() string                      { return "ParserBlockingScript" }
func (parserBlockingScriptCheck) Severity() offense.Severity        { return offense.SeverityWarning }
func (parserBlockingScriptCheck) Applies(t offense.SourceType) bool { return t == offense.SourceLiquidHTML }

func (parserBlockingScriptCheck) Run(f *File) []Finding {
	var findings []Finding
	for _, loc := range scriptTagRe.FindAllStringIndex(f.Source, -1) {
		tag := f.Source[loc[0]:loc[1]]
		if !srcAttrRe.MatchString(tag) || asyncDeferRe.MatchString(tag) || moduleTypeRe.MatchString(tag) {
			continue
		}
		findings = append(findings, Finding{
			Message: "Avoid parser blocking scripts by adding `defer` or `async` on this tag",
			Start:   loc[0],
			End:     loc[1],
		})
	}
	for _, loc := range scriptTagFilterRe.FindAllStringIndex(f.Source, -1) {
		findings = append(findings, Finding{
			Message: "The script_tag filter is parser-blocking. Use a script tag with the async or defer attribute for better performance",
			Start:   loc[0],
			End:     loc[1],
		})
	}
	return findings
}

// ImgWidthAndHeight

var (
	imgTagRe    = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	widthAttrRe = regexp.MustCompile(`(?i)\swidth\s*=`)
	heightRe    = regexp.MustCompile(`(?i)\sheight\s*=`)
)

type imgWidthAndHeightCheck struct{}

func (imgWidthAndHeightCheck) Name() string                      { return "ImgWidthAndHeight" }
func (imgWidthAndHeightCheck) Severity() offense.Severity        { return offense.SeveritySuggestion }
func (imgWidthAndHeightCheck) Applies(t offense.SourceType) bool { return t == offense.SourceLiquidHTML }

func (imgWidthAndHeightCheck) Run(f *File) []Finding {
	var findings []Finding
	for _, loc := range imgTagRe.FindAllStringIndex(f.Source, -1) {
		tag := f.Source[loc[0]:loc[1]]
		var missing []string
		if !widthAttrRe.MatchString(tag) {
			missing = append(missing, "width")
		}
		if !heightRe.MatchString(tag) {
			missing = append(missing, "height")
		}
		if len(missing) == 0 {
			continue
		}
		noun := "attribute"
		if len(missing) > 1 {
			noun = "attributes"
		}
		findings = append(findings, Finding{
			Message: fmt.Sprintf("Missing %s %s", strings.Join(missing, " and "), noun),
			Start:   loc[0],
			End:     loc[1],
		})
	}
	return findings
}

// UnusedAssign

var assignRe = regexp.MustCompile(`(?m)(?:\{%-?|^)\s*assign\s+([A-Za-z_][\w-]*)\s*=`)

type unusedAssignCheck struct{}

func (unusedAssignCheck) Name() string                      { return "UnusedAssign" }
func (unusedAssignCheck) Severity() offense.Severity        { return offense.SeverityInfo }
func (unusedAssignCheck) Applies(t offense.SourceType) bool { return t == offense.SourceLiquidHTML }

func (unusedAssignCheck) Run(f *File) []Finding {
	matches := assignRe.FindAllStringSubmatchIndex(f.Source, -1)
	if len(matches) == 0 {
		return nil
	}

	var findings []Finding
	seen := make(map[string]bool)
	for _, m := range matches {
		name := f.Source[m[2]:m[3]]
		if strings.HasPrefix(name, "_") || seen[name] {
			continue
		}
		seen[name] = true
		if usedOutsideAssign(f.Source, name, matches) {
			continue
		}
		findings = append(findings, Finding{
			Message: fmt.Sprintf("`%s` is never used", name),
			Start:   m[2],
			End:     m[3],
		})
	}
	return findings
}

func usedOutsideAssign(src, name string, assigns [][]int) bool {
	ref := regexp.MustCompile(`(^|[^\w-])` + regexp.QuoteMeta(name) + `($|[^\w-])`)
	for _, loc := range ref.FindAllStringIndex(src, -1) {
		isTarget := false
		for _, m := range assigns {
			if loc[0] <= m[2] && m[3] <= loc[1] {
				isTarget = true
				break
			}
		}
		if !isTarget {
			return true
		}
	}
	return false
}
