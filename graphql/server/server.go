// Package server adapts the reference GraphQL schema to an HTTP view: one
// route serving GraphQL-over-HTTP for regular methods and a WebSocket upgrade
// for subscription transports, with the hooks the shared test suite relies on
// (fixed root value, merged test context, result override).
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	gql "github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/treo/strawberry/graphql"
)

// IDE selects the interactive query explorer served on HTML GET requests.
type IDE string

const (
	// IDEGraphiQL serves the GraphiQL playground. This is the default.
	IDEGraphiQL IDE = "graphiql"
	// IDEApolloSandbox serves the embedded Apollo Sandbox.
	IDEApolloSandbox IDE = "apollo-sandbox"
	// IDEDisabled disables the explorer entirely.
	IDEDisabled IDE = "none"
)

// ResultOverrideFunc replaces the response produced by normal execution.
// Tests use it to simulate non-standard server behaviour.
type ResultOverrideFunc func(ctx context.Context, result *gql.Response) *gql.Response

// Options configures the view.
type Options struct {
	// IDE selects the explorer variant; empty means GraphiQL.
	IDE IDE
	// AllowQueriesViaGET controls whether GET requests may carry queries.
	// Nil means allowed.
	AllowQueriesViaGET *bool
	// ResultOverride, when set, replaces every execution result.
	ResultOverride ResultOverrideFunc
	// MultipartUploadsEnabled registers the multipart form transport.
	MultipartUploadsEnabled bool
	// RootName overrides the name reported by the fixed query root.
	RootName string
	// ContextFields are merged over the default test context entries.
	ContextFields map[string]interface{}
}

// Server is the HTTP view. It implements http.Handler.
type Server struct {
	gqlHandler    *handler.Server
	ide           http.Handler
	allowGET      bool
	contextFields map[string]interface{}
}

// New builds the view with the requested knobs.
func New(opts Options) *Server {
	schema := graphql.NewExecutableSchema(graphql.Roots{Query: graphql.NewQuery(opts.RootName)})

	h := handler.New(schema)
	h.AddTransport(transport.Websocket{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	})
	h.AddTransport(transport.Options{})
	allowGET := opts.AllowQueriesViaGET == nil || *opts.AllowQueriesViaGET
	if allowGET {
		h.AddTransport(transport.GET{})
	}
	h.AddTransport(transport.POST{})
	if opts.MultipartUploadsEnabled {
		h.AddTransport(transport.MultipartForm{})
	}

	if opts.ResultOverride != nil {
		override := opts.ResultOverride
		h.AroundResponses(func(ctx context.Context, next gql.ResponseHandler) *gql.Response {
			result := next(ctx)
			if result == nil {
				return nil
			}
			return override(ctx, result)
		})
	}

	return &Server{
		gqlHandler:    h,
		ide:           ideHandler(opts.IDE),
		allowGET:      allowGET,
		contextFields: opts.ContextFields,
	}
}

// ServeHTTP merges the test context into the request, dispatches the explorer
// for interactive HTML requests, and otherwise delegates to the GraphQL
// transports. WebSocket upgrades pass through the same path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.ide != nil && servesIDE(r) {
		s.ide.ServeHTTP(w, r)
		return
	}
	if !s.allowGET && r.Method == http.MethodGet && r.URL.Query().Has("query") {
		writeGraphQLError(w, http.StatusBadRequest, "queries are not allowed when using GET")
		return
	}

	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	fields := map[string]interface{}{
		graphql.ContextRequestKey:   r,
		graphql.ContextResponseKey:  w,
		graphql.ContextRequestIDKey: requestID,
	}
	for key, value := range s.contextFields {
		fields[key] = value
	}
	r = r.WithContext(graphql.WithTestContext(r.Context(), fields))

	s.gqlHandler.ServeHTTP(w, r)
}

// servesIDE reports whether the request asks for the interactive explorer:
// a plain browser GET without a query and without a WebSocket upgrade.
func servesIDE(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.URL.Query().Has("query") {
		return false
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeGraphQLError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]interface{}{
		"errors": []map[string]interface{}{{"message": message}},
	}
	_ = json.NewEncoder(w).Encode(payload)
}
