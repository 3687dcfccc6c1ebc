package offense

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SegmentKind tells the renderer how to style a segment.
type SegmentKind string

const (
	SegmentPlain   SegmentKind = ""
	SegmentError   SegmentKind = "error"
	SegmentWarn    SegmentKind = "warn"
	SegmentInfo    SegmentKind = "info"
	SegmentBold    SegmentKind = "bold"
	SegmentSubdued SegmentKind = "subdued"
)

// Segment is a run of text with a single style.
type Segment struct {
	Kind SegmentKind
	Text string
}

// LineReader returns the content of a zero-based row of a file. Missing files
// and rows yield "".
type LineReader interface {
	Line(path string, row int) string
}

// FileLines reads each file at most once and serves rows from memory.
type FileLines struct {
	readFile func(string) ([]byte, error)
	cache    map[string][]string
}

// NewFileLines returns a LineReader backed by the local file system.
func NewFileLines() *FileLines {
	return &FileLines{readFile: os.ReadFile, cache: make(map[string][]string)}
}

// Line implements LineReader.
func (f *FileLines) Line(path string, row int) string {
	lines, ok := f.cache[path]
	if !ok {
		data, err := f.readFile(path)
		if err == nil {
			lines = strings.Split(string(data), "\n")
		}
		f.cache[path] = lines
	}
	if row < 0 || row >= len(lines) {
		return ""
	}
	return lines[row]
}

// Format renders offenses as styled segments: severity tag, check name,
// message, then the row number and source line. The printed number is row+1
// next to the content of row itself, matching the output of the previous
// theme-check tool.
func Format(offenses []Offense, lines LineReader) []Segment {
	segments := make([]Segment, 0, len(offenses)*5)
	for i, o := range offenses {
		snippet := strings.TrimSpace(lines.Line(o.AbsolutePath, o.Start.Line))
		sep := ""
		if i < len(offenses)-1 {
			sep = "\n\n"
		}
		segments = append(segments,
			severityTag(o.Severity),
			Segment{Kind: SegmentBold, Text: o.Check},
			Segment{Kind: SegmentSubdued, Text: "\n" + o.Message},
			Segment{Text: "\n\n" + strconv.Itoa(o.Start.Line+1) + "  " + snippet},
			Segment{Text: sep},
		)
	}
	return segments
}

func severityTag(s Severity) Segment {
	text := "\n[" + s.String() + "]:"
	switch s {
	case SeverityError:
		return Segment{Kind: SegmentError, Text: text}
	case SeverityWarning:
		return Segment{Kind: SegmentWarn, Text: text}
	default:
		return Segment{Kind: SegmentInfo, Text: text}
	}
}

// FormatSummary describes a run in a few lines: files inspected, offense
// totals and a count per non-empty severity.
func FormatSummary(offenses []Offense, byFile ByFile, filesInspected int) []string {
	summary := []string{fmt.Sprintf("%d files inspected", filesInspected)}
	if len(offenses) == 0 {
		return append(summary, "with no offenses found.")
	}

	counts := make(map[Severity]int)
	for _, o := range offenses {
		counts[o.Severity]++
	}
	summary = append(summary, fmt.Sprintf("with %d total offenses found across %d files.", len(offenses), len(byFile)))
	for _, row := range []struct {
		sev   Severity
		label string
	}{
		{SeverityError, "errors"},
		{SeverityWarning, "warnings"},
		{SeveritySuggestion, "suggestions"},
		{SeverityInfo, "info"},
	} {
		if n := counts[row.sev]; n > 0 {
			summary = append(summary, fmt.Sprintf("\n%d %s.", n, row.label))
		}
	}
	return summary
}
