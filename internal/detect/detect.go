// Package detect sniffs external diagnostic input to determine its format.
package detect

import (
	"bytes"
	"encoding/json"
)

// Format represents a recognized input format.
type Format int

const (
	Unknown    Format = iota
	SARIF             // SARIF 2.1.0 JSON document
	CheckJSON         // theme check --output json report
)

func (f Format) String() string {
	switch f {
	case SARIF:
		return "sarif"
	case CheckJSON:
		return "theme-check-json"
	default:
		return "unknown"
	}
}

// Sniff examines input to determine its format.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Unknown
	}

	switch data[0] {
	case '{':
		if isSARIF(data) {
			return SARIF
		}
	case '[':
		if isCheckJSON(data) {
			return CheckJSON
		}
	}
	return Unknown
}

func isSARIF(data []byte) bool {
	var doc struct {
		Version string            `json:"version"`
		Runs    []json.RawMessage `json:"runs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	return doc.Version != "" && doc.Runs != nil
}

func isCheckJSON(data []byte) bool {
	var doc []struct {
		Path     *string           `json:"path"`
		Offenses []json.RawMessage `json:"offenses"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	for _, report := range doc {
		if report.Path == nil || report.Offenses == nil {
			return false
		}
	}
	return true
}
