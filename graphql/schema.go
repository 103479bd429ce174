package graphql

import (
	"context"

	gql "github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// schemaSDL is the reference schema served by every harness instance. It is
// deliberately small: one field per behaviour the shared test suite exercises
// (plain queries, arguments, context access, error paths, uploads, and
// subscription streaming).
const schemaSDL = `
scalar Upload

type Query {
  hello(name: String): String!
  rootName: String!
  valueFromContext: String!
  error: String
}

type Mutation {
  echo(message: String!): String!
  readText(textFile: Upload!): String!
  readFiles(files: [Upload!]!): [String!]!
}

type Subscription {
  echo(message: String!, count: Int): String!
}
`

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{
	Name:  "schema.graphql",
	Input: schemaSDL,
})

// Roots bundles the root objects the executor resolves against.
type Roots struct {
	Query        *Query
	Mutation     *Mutation
	Subscription *Subscription
}

// NewExecutableSchema returns a gqlgen executable schema backed by the
// reference schema and the provided root objects. Nil roots are replaced
// with defaults so the zero value is usable.
func NewExecutableSchema(roots Roots) gql.ExecutableSchema {
	if roots.Query == nil {
		roots.Query = NewQuery("")
	}
	if roots.Mutation == nil {
		roots.Mutation = &Mutation{}
	}
	if roots.Subscription == nil {
		roots.Subscription = &Subscription{}
	}
	return &executableSchema{roots: roots}
}

type executableSchema struct {
	roots Roots
}

// Schema implements graphql.ExecutableSchema.
func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

// Complexity implements graphql.ExecutableSchema. The harness does not
// estimate complexity.
func (e *executableSchema) Complexity(typeName, fieldName string, childComplexity int, args map[string]interface{}) (int, bool) {
	return 0, false
}

// Exec implements graphql.ExecutableSchema.
func (e *executableSchema) Exec(ctx context.Context) gql.ResponseHandler {
	opCtx := gql.GetOperationContext(ctx)
	switch opCtx.Operation.Operation {
	case ast.Query:
		return gql.OneShot(e.resolveSelection(ctx, opCtx, e.roots.Query.resolve))
	case ast.Mutation:
		return gql.OneShot(e.resolveSelection(ctx, opCtx, e.roots.Mutation.resolve))
	case ast.Subscription:
		return e.resolveSubscription(ctx, opCtx)
	default:
		return gql.OneShot(gql.ErrorResponse(ctx, "unsupported operation type %q", opCtx.Operation.Operation))
	}
}
