package sarif

import (
	"path/filepath"
	"strings"

	"github.com/dkoosis/shopkit/pkg/offense"
)

// levelToSeverity maps SARIF result levels onto offense severities.
var levelToSeverity = map[string]offense.Severity{
	"error":   offense.SeverityError,
	"warning": offense.SeverityWarning,
	"note":    offense.SeveritySuggestion,
	"none":    offense.SeverityInfo,
}

func severityToLevel(s offense.Severity) string {
	switch s {
	case offense.SeverityError:
		return "error"
	case offense.SeverityWarning:
		return "warning"
	case offense.SeveritySuggestion:
		return "note"
	default:
		return "none"
	}
}

// ToOffenses converts every result in doc to an offense. Relative URIs are
// resolved against root. SARIF lines and columns are one-based; offense rows
// and columns are zero-based. Results without a level are warnings, as the
// SARIF default requires.
func ToOffenses(doc *Document, root string) []offense.Offense {
	var offenses []offense.Offense
	for _, run := range doc.Runs {
		for _, r := range run.Results {
			sev, ok := levelToSeverity[r.Level]
			if !ok {
				sev = offense.SeverityWarning
			}
			o := offense.Offense{
				Type:     sourceType(r),
				Check:    r.RuleID,
				Message:  r.Message.Text,
				Severity: sev,
			}
			if len(r.Locations) > 0 {
				loc := r.Locations[0].PhysicalLocation
				o.AbsolutePath = resolveURI(loc.ArtifactLocation.URI, root)
				o.Start = offense.Position{Line: zeroBased(loc.Region.StartLine), Character: zeroBased(loc.Region.StartColumn)}
				endLine, endCol := loc.Region.EndLine, loc.Region.EndColumn
				if endLine == 0 {
					endLine = loc.Region.StartLine
				}
				if endCol == 0 {
					endCol = loc.Region.StartColumn
				}
				o.End = offense.Position{Line: zeroBased(endLine), Character: zeroBased(endCol)}
			}
			offenses = append(offenses, o)
		}
	}
	return offenses
}

// FromOffenses builds a SARIF document from offenses. Paths under root are
// written relative to it.
func FromOffenses(offenses []offense.Offense, toolName, toolVersion, root string) *Document {
	b := NewBuilder(toolName, toolVersion)
	for _, o := range offenses {
		file := o.AbsolutePath
		if rel, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(rel, "..") {
			file = filepath.ToSlash(rel)
		}
		b.AddResult(o.Check, severityToLevel(o.Severity), o.Message, file, Region{
			StartLine:   o.Start.Line + 1,
			StartColumn: o.Start.Character + 1,
			EndLine:     o.End.Line + 1,
			EndColumn:   o.End.Character + 1,
		})
	}
	return b.Document()
}

func resolveURI(uri, root string) string {
	uri = strings.TrimPrefix(uri, "file://")
	if uri == "" {
		return ""
	}
	p := filepath.FromSlash(uri)
	if !filepath.IsAbs(p) && root != "" {
		p = filepath.Join(root, p)
	}
	return filepath.Clean(p)
}

func sourceType(r Result) offense.SourceType {
	if len(r.Locations) > 0 && strings.HasSuffix(r.Locations[0].PhysicalLocation.ArtifactLocation.URI, ".json") {
		return offense.SourceJSON
	}
	return offense.SourceLiquidHTML
}

func zeroBased(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
