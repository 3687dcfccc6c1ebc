package graphql

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document is a query whose result and variable types travel with its text.
type Document[TResult, TVars any] struct {
	Query string
}

// NewDocument declares a typed document.
func NewDocument[TResult, TVars any](query string) Document[TResult, TVars] {
	return Document[TResult, TVars]{Query: query}
}

// DocOptions describes a typed-document request.
type DocOptions[TResult, TVars any] struct {
	API          string
	URL          string
	Token        string
	AddedHeaders map[string]string
	Document     Document[TResult, TVars]
	Variables    TVars
	Response     ResponseOptions
}

// RequestDoc runs a typed document.
func RequestDoc[TResult, TVars any](ctx context.Context, c *Client, opts DocOptions[TResult, TVars]) (TResult, error) {
	vars, err := toVariables(opts.Variables)
	if err != nil {
		var zero TResult
		return zero, fmt.Errorf("encode %s variables: %w", opts.API, err)
	}
	return Request[TResult](ctx, c, Options{
		API:          opts.API,
		URL:          opts.URL,
		Token:        opts.Token,
		AddedHeaders: opts.AddedHeaders,
		Query:        opts.Document.Query,
		Variables:    vars,
		Response:     opts.Response,
	})
}

// toVariables converts a variables struct to the map sent on the wire, using
// its json tags.
func toVariables(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
