package sarif

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadFile parses a SARIF file from disk.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sarif file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// ReadBytes parses SARIF from a byte slice.
func ReadBytes(data []byte) (*Document, error) {
	return Read(bytes.NewReader(data))
}

// Read parses SARIF from an io.Reader. Anything but whitespace after the
// document is rejected.
func Read(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode sarif: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode sarif: trailing data after document")
	}

	if doc.Version == "" {
		return nil, fmt.Errorf("missing sarif version")
	}

	return &doc, nil
}
