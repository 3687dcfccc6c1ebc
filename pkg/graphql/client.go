// Package graphql performs GraphQL requests against the platform's admin and
// partner APIs on top of the genqlient client.
//
// Request headers are the caller's extra headers overlaid with the standard
// shopkit headers, so a caller can never replace the authentication or user
// agent. Every network round trip is timed into metrics.NetworkTiming.
package graphql

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gql "github.com/Khan/genqlient/graphql"
	"go.uber.org/zap"

	"github.com/dkoosis/shopkit/internal/metrics"
	"github.com/dkoosis/shopkit/internal/version"
)

// Client sends GraphQL requests.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient wraps httpClient. A nil httpClient gets a TLS 1.2+ client with a
// 30 second timeout; a nil logger discards debug output.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: defaultTransport(), Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger.Named("graphql")}
}

// defaultTransport keeps the stdlib proxy and HTTP/2 settings and raises the
// TLS floor.
func defaultTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	t.TLSClientConfig.MinVersion = tls.VersionTLS12
	return t
}

// ResponseOptions controls how a response is handled.
type ResponseOptions struct {
	// SkipErrorHandling returns data even when the response carries GraphQL
	// errors or a non-2xx status.
	SkipErrorHandling bool
	// OnResponse sees the raw response before data is decoded.
	OnResponse func(*Response)
}

// Options describes one request.
type Options struct {
	// API names the target API in logs and errors, e.g. "Admin".
	API          string
	URL          string
	Token        string
	AddedHeaders map[string]string
	Query        string
	Variables    map[string]any
	Response     ResponseOptions
}

// Error is one entry of a GraphQL "errors" array.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is the raw decoded response.
type Response struct {
	Status     int
	Headers    http.Header
	Data       json.RawMessage
	Errors     []Error
	Extensions map[string]any
}

// ClientError reports a failed request.
type ClientError struct {
	API       string
	Status    int
	RequestID string
	Errors    []Error
}

func (e *ClientError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "the %s GraphQL API responded unsuccessfully with the HTTP status %d", e.API, e.Status)
	if len(e.Errors) > 0 {
		msgs := make([]string, len(e.Errors))
		for i, ge := range e.Errors {
			msgs[i] = ge.Message
		}
		fmt.Fprintf(&b, " and errors: %s", strings.Join(msgs, "; "))
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request id %s)", e.RequestID)
	}
	return b.String()
}

// Headers that must never reach a log line.
var secretHeaders = map[string]bool{
	"Authorization":          true,
	"X-Shopify-Access-Token": true,
}

// BuildHeaders returns the standard request headers.
func BuildHeaders(token string) map[string]string {
	h := map[string]string{
		"User-Agent":   version.UserAgent(),
		"Keep-Alive":   "timeout=30",
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if token != "" {
		h["Authorization"] = "Bearer " + token
		h["X-Shopify-Access-Token"] = token
	}
	return h
}

func mergeHeaders(added map[string]string, token string) http.Header {
	out := make(http.Header, len(added)+6)
	for k, v := range added {
		out.Set(k, v)
	}
	for k, v := range BuildHeaders(token) {
		out.Set(k, v)
	}
	return out
}

func redacted(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		if secretHeaders[k] {
			out[k] = "****"
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

// Request runs opts.Query and decodes the response data into T.
func Request[T any](ctx context.Context, c *Client, opts Options) (T, error) {
	var result T

	raw, err := c.do(ctx, opts)
	if err != nil {
		return result, err
	}
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return result, nil
	}
	if err := json.Unmarshal(raw.Data, &result); err != nil {
		return result, fmt.Errorf("decode %s response data: %w", opts.API, err)
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, opts Options) (*Response, error) {
	headers := mergeHeaders(opts.AddedHeaders, opts.Token)
	c.logger.Debug("sending GraphQL request",
		zap.String("api", opts.API),
		zap.String("url", opts.URL),
		zap.String("query", opts.Query),
		zap.Any("variables", opts.Variables),
		zap.Any("headers", redacted(headers)),
	)

	resp, err := metrics.RunWithTimer(ctx, metrics.NetworkTiming, func() (*Response, error) {
		return c.roundTrip(ctx, opts, headers)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("received GraphQL response",
		zap.String("api", opts.API),
		zap.Int("status", resp.Status),
		zap.String("request_id", resp.Headers.Get("X-Request-Id")),
		zap.Int("errors", len(resp.Errors)),
	)

	if !opts.Response.SkipErrorHandling && (len(resp.Errors) > 0 || resp.Status < 200 || resp.Status > 299) {
		return nil, &ClientError{
			API:       opts.API,
			Status:    resp.Status,
			RequestID: resp.Headers.Get("X-Request-Id"),
			Errors:    resp.Errors,
		}
	}
	if opts.Response.OnResponse != nil {
		opts.Response.OnResponse(resp)
	}
	return resp, nil
}

// headerDoer stamps the merged headers on each request genqlient builds and
// keeps the status and headers of the response.
type headerDoer struct {
	client  *http.Client
	headers http.Header

	status      int
	respHeaders http.Header
}

func (d *headerDoer) Do(req *http.Request) (*http.Response, error) {
	for k, v := range d.headers {
		req.Header[k] = v
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	d.status, d.respHeaders = resp.StatusCode, resp.Header
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, opts Options, headers http.Header) (*Response, error) {
	doer := &headerDoer{client: c.httpClient, headers: headers}
	req := &gql.Request{Query: opts.Query}
	if len(opts.Variables) > 0 {
		req.Variables = opts.Variables
	}
	var data json.RawMessage
	gqlResp := &gql.Response{Data: &data}

	err := gql.NewClient(opts.URL, doer).MakeRequest(ctx, req, gqlResp)

	resp := &Response{
		Status:     doer.status,
		Headers:    doer.respHeaders,
		Data:       data,
		Extensions: gqlResp.Extensions,
	}
	if resp.Headers == nil {
		resp.Headers = http.Header{}
	}
	for _, e := range gqlResp.Errors {
		ge := Error{Message: e.Message, Extensions: e.Extensions}
		for _, p := range e.Path {
			ge.Path = append(ge.Path, p)
		}
		resp.Errors = append(resp.Errors, ge)
	}

	var httpErr *gql.HTTPError
	switch {
	case err == nil:
	case errors.As(err, &httpErr):
		resp.Status = httpErr.StatusCode
		resp.Errors = append(resp.Errors, bodyErrors(httpErr.Body)...)
	case len(resp.Errors) > 0:
		// GraphQL errors; handled by the caller.
	case doer.status == 0:
		return nil, fmt.Errorf("%s request failed: %w", opts.API, err)
	case doer.status < 200 || doer.status > 299:
		resp.Errors = append(resp.Errors, Error{Message: err.Error()})
	default:
		return nil, fmt.Errorf("decode %s response: %w", opts.API, err)
	}
	return resp, nil
}

// bodyErrors extracts GraphQL errors from a non-2xx body. Bodies that are not
// GraphQL JSON (gateway pages) surface as the message.
func bodyErrors(body string) []Error {
	var envelope struct {
		Errors []Error `json:"errors"`
	}
	if json.Unmarshal([]byte(body), &envelope) == nil && len(envelope.Errors) > 0 {
		return envelope.Errors
	}
	if msg := strings.TrimSpace(body); msg != "" {
		return []Error{{Message: msg}}
	}
	return nil
}
