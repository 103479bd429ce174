package server

import (
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
)

const graphqlEndpoint = "/graphql"

// ideHandler maps the IDE knob to a gqlgen playground handler, or nil when
// the explorer is disabled. Unknown variants fall back to GraphiQL.
func ideHandler(ide IDE) http.Handler {
	switch ide {
	case IDEDisabled:
		return nil
	case IDEApolloSandbox:
		return playground.ApolloSandboxHandler("Apollo Sandbox", graphqlEndpoint)
	default:
		return playground.Handler("GraphiQL", graphqlEndpoint)
	}
}
