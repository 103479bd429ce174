package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	gql "github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// resolverFunc resolves one root field by name with coerced arguments.
type resolverFunc func(ctx context.Context, field string, args map[string]interface{}) (interface{}, error)

// resolveSelection resolves every collected root field in selection order and
// marshals the results into a single response. A failing resolver nulls its
// field and contributes to the errors list; remaining fields still resolve.
func (e *executableSchema) resolveSelection(ctx context.Context, opCtx *gql.OperationContext, resolve resolverFunc) *gql.Response {
	fields := gql.CollectFields(opCtx, opCtx.Operation.SelectionSet, nil)

	var buf bytes.Buffer
	var errs gqlerror.List
	buf.WriteByte('{')
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		value, err := resolve(ctx, field.Name, field.ArgumentMap(opCtx.Variables))
		if err != nil {
			errs = append(errs, gqlerror.ErrorPathf(ast.Path{ast.PathName(field.Alias)}, "%s", err.Error()))
			value = nil
		}
		if err := writeField(&buf, field.Alias, value); err != nil {
			return gql.ErrorResponse(ctx, "marshal field %s: %s", field.Alias, err.Error())
		}
	}
	buf.WriteByte('}')

	return &gql.Response{Data: buf.Bytes(), Errors: errs}
}

// resolveSubscription resolves the single subscription root field to a stream
// and returns a handler that emits one response per streamed value, ending the
// stream on channel close or context cancellation.
func (e *executableSchema) resolveSubscription(ctx context.Context, opCtx *gql.OperationContext) gql.ResponseHandler {
	fields := gql.CollectFields(opCtx, opCtx.Operation.SelectionSet, nil)
	if len(fields) != 1 {
		return gql.OneShot(gql.ErrorResponse(ctx, "subscriptions accept exactly one root field, got %d", len(fields)))
	}

	field := fields[0]
	stream, err := e.roots.Subscription.resolve(ctx, field.Name, field.ArgumentMap(opCtx.Variables))
	if err != nil {
		return gql.OneShot(&gql.Response{Errors: gqlerror.List{gqlerror.Errorf("%s", err.Error())}})
	}

	alias := field.Alias
	return func(ctx context.Context) *gql.Response {
		select {
		case <-ctx.Done():
			return nil
		case value, ok := <-stream:
			if !ok {
				return nil
			}
			var buf bytes.Buffer
			buf.WriteByte('{')
			if err := writeField(&buf, alias, value); err != nil {
				return &gql.Response{Errors: gqlerror.List{gqlerror.Errorf("marshal field %s: %s", alias, err.Error())}}
			}
			buf.WriteByte('}')
			return &gql.Response{Data: buf.Bytes()}
		}
	}
}

// writeField appends `"alias":<json value>` to buf.
func writeField(buf *bytes.Buffer, alias string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.WriteString(strconv.Quote(alias))
	buf.WriteByte(':')
	buf.Write(raw)
	return nil
}

// stringArg reads an optional string argument, returning fallback when the
// argument is absent or null.
func stringArg(args map[string]interface{}, name, fallback string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: expected string, got %T", name, raw)
	}
	return value, nil
}

// intArg reads an optional integer argument. Literal ints arrive as int64 from
// the parser; variable values arrive as json.Number from the request decoder.
func intArg(args map[string]interface{}, name string, fallback int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch value := raw.(type) {
	case int:
		return value, nil
	case int64:
		return int(value), nil
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", name, err)
		}
		return int(parsed), nil
	case float64:
		return int(value), nil
	default:
		return 0, fmt.Errorf("argument %q: expected integer, got %T", name, raw)
	}
}

// uploadArg reads a required Upload argument as populated by the multipart
// form transport.
func uploadArg(args map[string]interface{}, name string) (gql.Upload, error) {
	switch value := args[name].(type) {
	case gql.Upload:
		return value, nil
	case *gql.Upload:
		if value != nil {
			return *value, nil
		}
	}
	return gql.Upload{}, fmt.Errorf("argument %q: expected an upload", name)
}

// uploadListArg reads a required [Upload!]! argument.
func uploadListArg(args map[string]interface{}, name string) ([]gql.Upload, error) {
	raw, ok := args[name].([]interface{})
	if !ok {
		return nil, fmt.Errorf("argument %q: expected a list of uploads, got %T", name, args[name])
	}
	uploads := make([]gql.Upload, 0, len(raw))
	for i, item := range raw {
		upload, ok := item.(gql.Upload)
		if !ok {
			return nil, fmt.Errorf("argument %q[%d]: expected an upload, got %T", name, i, item)
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}
