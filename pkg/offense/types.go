// Package offense holds theme check diagnostics and the transformations the
// CLI applies to them: grouping by file, text and JSON formatting, summaries,
// and mapping the worst severity to a process exit code.
package offense

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks a diagnostic. Higher values are more severe.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuggestion
	SeverityWarning
	SeverityError
)

var severityNames = map[Severity]string{
	SeverityInfo:       "info",
	SeveritySuggestion: "suggestion",
	SeverityWarning:    "warning",
	SeverityError:      "error",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the lowercase severity name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the lowercase severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a severity name ("error", "warning", ...) to a Severity.
func ParseSeverity(name string) (Severity, error) {
	for sev, n := range severityNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q (expected info, suggestion, warning, error)", name)
}

// FailLevel is the threshold at which a check run is considered failed.
type FailLevel struct {
	crash    bool
	severity Severity
}

// Fail levels accepted by --fail-level.
var (
	FailLevelCrash      = FailLevel{crash: true}
	FailLevelError      = FailLevel{severity: SeverityError}
	FailLevelWarning    = FailLevel{severity: SeverityWarning}
	FailLevelSuggestion = FailLevel{severity: SeveritySuggestion}
	FailLevelInfo       = FailLevel{severity: SeverityInfo}
)

// ParseFailLevel accepts "crash" or any severity name.
func ParseFailLevel(name string) (FailLevel, error) {
	if strings.EqualFold(strings.TrimSpace(name), "crash") {
		return FailLevelCrash, nil
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return FailLevel{}, fmt.Errorf("unknown fail level %q (expected crash, error, warning, suggestion, info)", name)
	}
	return FailLevel{severity: sev}, nil
}

// IsCrash reports whether only an engine crash fails the run.
func (f FailLevel) IsCrash() bool { return f.crash }

// Severity returns the threshold severity. Meaningless when IsCrash.
func (f FailLevel) Severity() Severity { return f.severity }

func (f FailLevel) String() string {
	if f.crash {
		return "crash"
	}
	return f.severity.String()
}

// Position locates one end of an offense. Line is the engine's zero-based row;
// Character is the zero-based column and Index the byte offset in the file.
type Position struct {
	Index     int `json:"index"`
	Line      int `json:"line"`
	Character int `json:"character"`
}

// SourceType identifies the kind of file an offense was found in.
type SourceType string

const (
	SourceLiquidHTML SourceType = "LiquidHtml"
	SourceJSON       SourceType = "JSON"
)

// Offense is a single diagnostic reported by the checker. Offenses are
// produced once and never mutated.
type Offense struct {
	Type         SourceType `json:"type"`
	Check        string     `json:"check"`
	Message      string     `json:"message"`
	AbsolutePath string     `json:"absolutePath"`
	Severity     Severity   `json:"severity"`
	Start        Position   `json:"start"`
	End          Position   `json:"end"`
}

// ByFile groups offenses by absolute file path.
type ByFile map[string][]Offense

// Paths returns the grouped file paths in ascending order.
func (b ByFile) Paths() []string {
	paths := make([]string, 0, len(b))
	for p := range b {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Count returns the total number of offenses across files.
func (b ByFile) Count() int {
	n := 0
	for _, offs := range b {
		n += len(offs)
	}
	return n
}
