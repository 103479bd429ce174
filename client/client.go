// Package client is the test-client side of the harness: it mounts the
// GraphQL view on an in-process test server and exposes the uniform
// request/response and WebSocket session envelopes the shared test suite
// drives every binding through.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/treo/strawberry/graphql/server"
	"github.com/treo/strawberry/observability/tracing"
)

// Response is the normalized HTTP envelope: one per request, immutable once
// constructed.
type Response struct {
	StatusCode int
	Body       []byte
	Header     map[string]string
}

// Options configures the harness client and the view it mounts.
type Options struct {
	// IDE selects the explorer variant; empty means GraphiQL.
	IDE server.IDE
	// AllowQueriesViaGET controls GET queries; nil means allowed.
	AllowQueriesViaGET *bool
	// ResultOverride replaces every execution result when set.
	ResultOverride server.ResultOverrideFunc
	// MultipartUploadsEnabled enables the multipart upload transport.
	MultipartUploadsEnabled bool
	// RootName overrides the reported query-root name.
	RootName string
	// ContextFields are merged into the per-request test context.
	ContextFields map[string]interface{}
	// Tracer instruments each request; nil disables tracing.
	Tracer tracing.Tracer
}

// Client drives the mounted view through an in-process HTTP test server.
type Client struct {
	server *httptest.Server
	http   *http.Client
	tracer tracing.Tracer
}

// New mounts the view at /graphql (all HTTP methods, WebSocket upgrade
// included) and starts the test server. Callers must release it with Close.
func New(opts Options) *Client {
	view := server.New(server.Options{
		IDE:                     opts.IDE,
		AllowQueriesViaGET:      opts.AllowQueriesViaGET,
		ResultOverride:          opts.ResultOverride,
		MultipartUploadsEnabled: opts.MultipartUploadsEnabled,
		RootName:                opts.RootName,
		ContextFields:           opts.ContextFields,
	})

	mux := http.NewServeMux()
	mux.Handle(graphqlPath, view)
	ts := httptest.NewServer(mux)

	return &Client{
		server: ts,
		http:   ts.Client(),
		tracer: tracing.WithTracer(opts.Tracer),
	}
}

const graphqlPath = "/graphql"

// Close shuts the test server down, closing any outstanding connections.
func (c *Client) Close() {
	c.server.Close()
}

// BaseURL returns the test server's base URL.
func (c *Client) BaseURL() string {
	return c.server.URL
}

// Request issues one HTTP call through the test server, reads the full body,
// and returns the normalized Response. The response body is released on every
// exit path.
func (c *Client) Request(ctx context.Context, method, path string, header http.Header, body []byte) (Response, error) {
	ctx, span := c.tracer.Start(ctx, "harness.request",
		tracing.String("http.method", method),
		tracing.String("http.path", path),
	)
	response, err := c.do(ctx, method, path, header, body)
	span.End(err)
	return response, err
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, header http.Header) (Response, error) {
	return c.Request(ctx, http.MethodGet, path, header, nil)
}

// Post issues a POST request with the given body.
func (c *Client) Post(ctx context.Context, path string, header http.Header, body []byte) (Response, error) {
	return c.Request(ctx, http.MethodPost, path, header, body)
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body []byte) (Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), c.server.URL+path, reader)
	if err != nil {
		return Response{}, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: res.StatusCode, Body: data, Header: flattenHeader(res.Header)}, nil
}

// flattenHeader keeps the first value of each header, matching the flat
// mapping the shared suite asserts against.
func flattenHeader(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key := range header {
		flat[key] = header.Get(key)
	}
	return flat
}
