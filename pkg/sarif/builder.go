package sarif

import (
	"encoding/json"
	"io"
)

// Version is the SARIF version shopkit reads and writes.
const Version = "2.1.0"

const schemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// Builder constructs SARIF documents with a single run.
type Builder struct {
	doc *Document
}

// NewBuilder creates a SARIF builder for the given tool.
func NewBuilder(toolName, toolVersion string) *Builder {
	return &Builder{
		doc: &Document{
			Version: Version,
			Schema:  schemaURI,
			Runs: []Run{{
				Tool:    Tool{Driver: Driver{Name: toolName, Version: toolVersion}},
				Results: []Result{},
			}},
		},
	}
}

// AddResult appends a result. An empty file produces a result without a location.
func (b *Builder) AddResult(ruleID, level, message, file string, region Region) *Builder {
	r := Result{
		RuleID:  ruleID,
		Level:   level,
		Message: Message{Text: message},
	}
	if file != "" {
		r.Locations = []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: file},
				Region:           region,
			},
		}}
	}
	b.doc.Runs[0].Results = append(b.doc.Runs[0].Results, r)
	return b
}

// Document returns the constructed SARIF document.
func (b *Builder) Document() *Document {
	return b.doc
}

// WriteTo writes the SARIF document as indented JSON to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(b.doc, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	n, err := w.Write(data)
	return int64(n), err
}
