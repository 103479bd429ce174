package graphql

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrAlwaysFails is returned by the Query error field so tests can assert on
// GraphQL error propagation.
var ErrAlwaysFails = errors.New("this field always fails")

// Query is the fixed query root supplied to every execution.
type Query struct {
	name string
}

// NewQuery returns a query root reporting the given name, defaulting to
// "Query" when empty.
func NewQuery(name string) *Query {
	if name == "" {
		name = "Query"
	}
	return &Query{name: name}
}

// Hello greets the optional name argument, defaulting to the canonical
// "Hello world".
func (q *Query) Hello(name string) string {
	if name == "" {
		return "Hello world"
	}
	return "Hello " + name
}

// RootName reports the name of the injected root object.
func (q *Query) RootName() string {
	return q.name
}

// ValueFromContext resolves the custom value merged into the test context by
// the view adapter.
func (q *Query) ValueFromContext(ctx context.Context) (string, error) {
	value, ok := TestContextFrom(ctx)[ContextCustomValueKey].(string)
	if !ok {
		return "", fmt.Errorf("test context has no %q entry", ContextCustomValueKey)
	}
	return value, nil
}

func (q *Query) resolve(ctx context.Context, field string, args map[string]interface{}) (interface{}, error) {
	switch field {
	case "hello":
		name, err := stringArg(args, "name", "")
		if err != nil {
			return nil, err
		}
		return q.Hello(name), nil
	case "rootName":
		return q.RootName(), nil
	case "valueFromContext":
		return q.ValueFromContext(ctx)
	case "error":
		return nil, ErrAlwaysFails
	default:
		return nil, fmt.Errorf("unknown query field %q", field)
	}
}

// Mutation is the mutation root.
type Mutation struct{}

// Echo returns the message unchanged.
func (m *Mutation) Echo(message string) string {
	return message
}

// ReadText returns the full contents of an uploaded file as a string.
func (m *Mutation) ReadText(file io.Reader) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	return string(data), nil
}

func (m *Mutation) resolve(ctx context.Context, field string, args map[string]interface{}) (interface{}, error) {
	switch field {
	case "echo":
		message, err := stringArg(args, "message", "")
		if err != nil {
			return nil, err
		}
		return m.Echo(message), nil
	case "readText":
		upload, err := uploadArg(args, "textFile")
		if err != nil {
			return nil, err
		}
		return m.ReadText(upload.File)
	case "readFiles":
		uploads, err := uploadListArg(args, "files")
		if err != nil {
			return nil, err
		}
		contents := make([]string, 0, len(uploads))
		for _, upload := range uploads {
			text, err := m.ReadText(upload.File)
			if err != nil {
				return nil, err
			}
			contents = append(contents, text)
		}
		return contents, nil
	default:
		return nil, fmt.Errorf("unknown mutation field %q", field)
	}
}

// Subscription is the subscription root.
type Subscription struct{}

// Echo streams the message count times, then completes. Count defaults to 1.
func (s *Subscription) Echo(ctx context.Context, message string, count int) <-chan string {
	if count < 1 {
		count = 1
	}
	stream := make(chan string, 1)
	go func() {
		defer close(stream)
		for i := 0; i < count; i++ {
			select {
			case stream <- message:
			case <-ctx.Done():
				return
			}
		}
	}()
	return stream
}

func (s *Subscription) resolve(ctx context.Context, field string, args map[string]interface{}) (<-chan interface{}, error) {
	switch field {
	case "echo":
		message, err := stringArg(args, "message", "")
		if err != nil {
			return nil, err
		}
		count, err := intArg(args, "count", 1)
		if err != nil {
			return nil, err
		}
		source := s.Echo(ctx, message, count)
		stream := make(chan interface{})
		go func() {
			defer close(stream)
			for value := range source {
				select {
				case stream <- value:
				case <-ctx.Done():
					return
				}
			}
		}()
		return stream, nil
	default:
		return nil, fmt.Errorf("unknown subscription field %q", field)
	}
}
