package testkit

import (
	"context"
	stdtesting "testing"

	gqlclient "github.com/99designs/gqlgen/client"

	"github.com/treo/strawberry/client"
	"github.com/treo/strawberry/graphql/server"
)

// NewClient builds a harness client and registers its teardown with the test.
func NewClient(tb stdtesting.TB, opts client.Options) *client.Client {
	tb.Helper()
	c := client.New(opts)
	tb.Cleanup(c.Close)
	return c
}

// Connect opens a WebSocket session against the client's GraphQL route and
// registers its closure with the test, so the connection is released on every
// exit path.
func Connect(tb stdtesting.TB, c *client.Client, protocols ...string) *client.WebSocketSession {
	tb.Helper()
	session, err := c.WSConnect(context.Background(), "/graphql", protocols...)
	if err != nil {
		tb.Fatalf("ws connect: %v", err)
	}
	tb.Cleanup(func() { _ = session.Close() })
	return session
}

// GraphQLHarness wraps the view handler with gqlgen's test client for tests
// that assert on decoded data rather than raw HTTP envelopes.
type GraphQLHarness struct {
	client   *gqlclient.Client
	baseOpts []gqlclient.Option
}

// HarnessOptions configures the in-process GraphQL executor used by the
// harness.
type HarnessOptions struct {
	Server        server.Options
	ClientOptions []gqlclient.Option
}

// NewGraphQLHarness constructs a harness over a fresh view instance.
func NewGraphQLHarness(tb stdtesting.TB, opts HarnessOptions) *GraphQLHarness {
	tb.Helper()
	view := server.New(opts.Server)
	return &GraphQLHarness{
		client:   gqlclient.New(view),
		baseOpts: append([]gqlclient.Option(nil), opts.ClientOptions...),
	}
}

// Exec issues a GraphQL operation and decodes the data payload into resp.
func (h *GraphQLHarness) Exec(query string, resp interface{}, opts ...gqlclient.Option) error {
	allOpts := append(append([]gqlclient.Option{}, h.baseOpts...), opts...)
	return h.client.Post(query, resp, allOpts...)
}

// MustExec is a convenience wrapper that fails the supplied test if the
// request errors.
func (h *GraphQLHarness) MustExec(tb stdtesting.TB, query string, resp interface{}, opts ...gqlclient.Option) {
	tb.Helper()
	if err := h.Exec(query, resp, opts...); err != nil {
		tb.Fatalf("graphql exec: %v", err)
	}
}

// Client exposes the underlying gqlgen test client for advanced assertions.
func (h *GraphQLHarness) Client() *gqlclient.Client {
	if h == nil {
		return nil
	}
	return h.client
}
