package graphql

import "context"

// Well-known test context keys. The view adapter populates request-scoped
// entries and merges caller-provided fields over them.
const (
	ContextRequestKey     = "request"
	ContextResponseKey    = "response"
	ContextRequestIDKey   = "requestId"
	ContextCustomValueKey = "custom_value"
)

type testContextKey struct{}

// WithTestContext attaches the merged test context map to ctx.
func WithTestContext(ctx context.Context, fields map[string]interface{}) context.Context {
	return context.WithValue(ctx, testContextKey{}, fields)
}

// TestContextFrom returns the test context map attached to ctx, or an empty
// map when none was attached.
func TestContextFrom(ctx context.Context) map[string]interface{} {
	fields, ok := ctx.Value(testContextKey{}).(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return fields
}
