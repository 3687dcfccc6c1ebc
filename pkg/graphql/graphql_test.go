package graphql

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dkoosis/shopkit/internal/metrics"
)

type shopResult struct {
	Shop struct {
		Name string `json:"name"`
	} `json:"shop"`
}

type capturedRequest struct {
	headers http.Header
	body    map[string]any
}

func newServer(t *testing.T, status int, payload string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if captured != nil {
			captured.headers = r.Header.Clone()
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))
		}
		w.Header().Set("X-Request-Id", "req-123")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRequest_DecodesData(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, http.StatusOK, `{"data":{"shop":{"name":"Demo"}}}`, &captured)

	got, err := Request[shopResult](context.Background(), NewClient(srv.Client(), nil), Options{
		API:       "Admin",
		URL:       srv.URL,
		Query:     "query { shop { name } }",
		Variables: map[string]any{"first": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "Demo", got.Shop.Name)
	assert.Equal(t, "query { shop { name } }", captured.body["query"])
	assert.Equal(t, map[string]any{"first": float64(1)}, captured.body["variables"])
}

func TestRequest_StandardHeadersOverrideAddedHeaders(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, http.StatusOK, `{"data":{}}`, &captured)

	_, err := Request[map[string]any](context.Background(), NewClient(srv.Client(), nil), Options{
		API:   "Admin",
		URL:   srv.URL,
		Token: "secret-token",
		AddedHeaders: map[string]string{
			"Authorization":  "Bearer forged",
			"X-Shopify-Shop": "demo",
		},
		Query: "{ shop { name } }",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", captured.headers.Get("Authorization"))
	assert.Equal(t, "secret-token", captured.headers.Get("X-Shopify-Access-Token"))
	assert.Equal(t, "demo", captured.headers.Get("X-Shopify-Shop"))
	assert.Contains(t, captured.headers.Get("User-Agent"), "shopkit/")
	assert.Equal(t, "application/json", captured.headers.Get("Content-Type"))
}

func TestRequest_GraphQLErrorsBecomeClientError(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":null,"errors":[{"message":"Field 'x' doesn't exist"}]}`, nil)

	_, err := Request[shopResult](context.Background(), NewClient(srv.Client(), nil), Options{API: "Partners", URL: srv.URL, Query: "{ x }"})

	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, "Partners", clientErr.API)
	assert.Equal(t, http.StatusOK, clientErr.Status)
	assert.Equal(t, "req-123", clientErr.RequestID)
	assert.Contains(t, err.Error(), "Field 'x' doesn't exist")
}

func TestRequest_HTTPStatusBecomesClientError(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `<html>bad gateway</html>`, nil)

	_, err := Request[shopResult](context.Background(), NewClient(srv.Client(), nil), Options{API: "Admin", URL: srv.URL, Query: "{ shop { name } }"})

	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, http.StatusBadGateway, clientErr.Status)
	assert.Contains(t, err.Error(), "bad gateway")
}

func TestRequest_JSONErrorBodyOnHTTPFailure(t *testing.T) {
	srv := newServer(t, http.StatusUnauthorized, `{"errors":[{"message":"Invalid API key or access token"}]}`, nil)

	_, err := Request[shopResult](context.Background(), NewClient(srv.Client(), nil), Options{API: "Admin", URL: srv.URL, Query: "{ shop { name } }"})

	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, http.StatusUnauthorized, clientErr.Status)
	require.Len(t, clientErr.Errors, 1)
	assert.Equal(t, "Invalid API key or access token", clientErr.Errors[0].Message)
}

func TestRequest_ErrorPathAndExtensions(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":null,"errors":[{"message":"throttled","path":["shop","name"],"extensions":{"code":"THROTTLED"}}]}`, nil)

	_, err := Request[shopResult](context.Background(), NewClient(srv.Client(), nil), Options{API: "Admin", URL: srv.URL, Query: "{ shop { name } }"})

	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	require.Len(t, clientErr.Errors, 1)
	assert.Len(t, clientErr.Errors[0].Path, 2)
	assert.Equal(t, "THROTTLED", clientErr.Errors[0].Extensions["code"])
}

func TestRequest_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Request[shopResult](context.Background(), NewClient(nil, nil), Options{API: "Admin", URL: url, Query: "{ a }"})

	require.Error(t, err)
	var clientErr *ClientError
	assert.False(t, errors.As(err, &clientErr))
	assert.Contains(t, err.Error(), "Admin request failed")
}

func TestNewClient_DefaultTransport(t *testing.T) {
	c := NewClient(nil, nil)

	transport, ok := c.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.Proxy)
	assert.True(t, transport.ForceAttemptHTTP2)
	assert.Equal(t, uint16(tls.VersionTLS12), transport.TLSClientConfig.MinVersion)
	assert.Nil(t, http.DefaultTransport.(*http.Transport).TLSClientConfig)
}

func TestRequest_SkipErrorHandling(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":{"shop":{"name":"Partial"}},"errors":[{"message":"throttled"}],"extensions":{"cost":{"requestedQueryCost":1}}}`, nil)

	var seen *Response
	got, err := Request[shopResult](context.Background(), NewClient(srv.Client(), nil), Options{
		API:   "Admin",
		URL:   srv.URL,
		Query: "{ shop { name } }",
		Response: ResponseOptions{
			SkipErrorHandling: true,
			OnResponse:        func(r *Response) { seen = r },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Partial", got.Shop.Name)
	require.NotNil(t, seen)
	assert.Equal(t, "throttled", seen.Errors[0].Message)
	assert.Contains(t, seen.Extensions, "cost")
}

func TestRequest_RecordsNetworkTiming(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":{}}`, nil)
	rec := metrics.NewRecorder()
	ctx := metrics.WithRecorder(context.Background(), rec)

	for range 2 {
		_, err := Request[map[string]any](ctx, NewClient(srv.Client(), nil), Options{API: "Admin", URL: srv.URL, Query: "{ a }"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, rec.Calls(metrics.NetworkTiming))
}

func TestRequest_DebugLogRedactsSecrets(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":{}}`, nil)
	var buf bytes.Buffer
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	))

	_, err := Request[map[string]any](context.Background(), NewClient(srv.Client(), logger), Options{
		API: "Admin", URL: srv.URL, Token: "secret-token", Query: "{ a }",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "sending GraphQL request")
	assert.NotContains(t, buf.String(), "secret-token")
}

type productVars struct {
	ID string `json:"id"`
}

type productResult struct {
	Product struct {
		Title string `json:"title"`
	} `json:"product"`
}

func TestRequestDoc_SendsTypedVariables(t *testing.T) {
	var captured capturedRequest
	srv := newServer(t, http.StatusOK, `{"data":{"product":{"title":"Hat"}}}`, &captured)
	doc := NewDocument[productResult, productVars]("query($id: ID!) { product(id: $id) { title } }")

	got, err := RequestDoc(context.Background(), NewClient(srv.Client(), nil), DocOptions[productResult, productVars]{
		API:       "Admin",
		URL:       srv.URL,
		Document:  doc,
		Variables: productVars{ID: "gid://shopify/Product/1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hat", got.Product.Title)
	assert.Equal(t, map[string]any{"id": "gid://shopify/Product/1"}, captured.body["variables"])
}
