package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
)

// QueryRequest describes one GraphQL operation to send over HTTP.
type QueryRequest struct {
	Query         string
	Variables     map[string]interface{}
	OperationName string
	// Files maps upload variable names to file contents. Non-empty Files
	// switch a POST to the multipart request convention.
	Files map[string][]byte
	// Header entries are added to the computed request headers.
	Header http.Header
}

// DoQuery sends the operation using the given HTTP method. GET encodes the
// operation into the query string; POST encodes it as JSON, or as multipart
// form data when files are attached.
func (c *Client) DoQuery(ctx context.Context, method string, req QueryRequest) (Response, error) {
	switch method {
	case http.MethodGet:
		return c.queryViaGET(ctx, req)
	case http.MethodPost:
		return c.queryViaPOST(ctx, req)
	default:
		return Response{}, fmt.Errorf("unsupported graphql request method %q", method)
	}
}

// Query sends the operation as a POST, the default wire shape.
func (c *Client) Query(ctx context.Context, req QueryRequest) (Response, error) {
	return c.DoQuery(ctx, http.MethodPost, req)
}

func (c *Client) queryViaGET(ctx context.Context, req QueryRequest) (Response, error) {
	if len(req.Files) > 0 {
		return Response{}, fmt.Errorf("file uploads require POST")
	}

	values := url.Values{}
	values.Set("query", req.Query)
	if req.Variables != nil {
		variables, err := json.Marshal(req.Variables)
		if err != nil {
			return Response{}, fmt.Errorf("encode variables: %w", err)
		}
		values.Set("variables", string(variables))
	}
	if req.OperationName != "" {
		values.Set("operationName", req.OperationName)
	}

	return c.Get(ctx, graphqlPath+"?"+values.Encode(), req.Header)
}

func (c *Client) queryViaPOST(ctx context.Context, req QueryRequest) (Response, error) {
	var contentType string
	var body []byte
	var err error
	if len(req.Files) > 0 {
		contentType, body, err = encodeMultipart(req)
	} else {
		contentType = "application/json"
		body, err = json.Marshal(jsonOperation(req))
	}
	if err != nil {
		return Response{}, err
	}

	header := http.Header{}
	for key, values := range req.Header {
		header[key] = values
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", contentType)
	}
	return c.Post(ctx, graphqlPath, header, body)
}

func jsonOperation(req QueryRequest) map[string]interface{} {
	operation := map[string]interface{}{"query": req.Query}
	if req.Variables != nil {
		operation["variables"] = req.Variables
	}
	if req.OperationName != "" {
		operation["operationName"] = req.OperationName
	}
	return operation
}

// encodeMultipart builds a body following the GraphQL multipart request
// convention: an "operations" JSON field, a "map" field binding form parts to
// upload variables, and one part per file keyed by variable name.
func encodeMultipart(req QueryRequest) (contentType string, body []byte, err error) {
	variables := make(map[string]interface{}, len(req.Variables)+len(req.Files))
	for key, value := range req.Variables {
		variables[key] = value
	}
	for name := range req.Files {
		if _, bound := variables[name]; !bound {
			variables[name] = nil
		}
	}

	operation := map[string]interface{}{"query": req.Query, "variables": variables}
	if req.OperationName != "" {
		operation["operationName"] = req.OperationName
	}
	operations, err := json.Marshal(operation)
	if err != nil {
		return "", nil, fmt.Errorf("encode operations: %w", err)
	}

	bindings := make(map[string][]string, len(req.Files))
	for name := range req.Files {
		bindings[name] = []string{"variables." + name}
	}
	bindingsJSON, err := json.Marshal(bindings)
	if err != nil {
		return "", nil, fmt.Errorf("encode file map: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("operations", string(operations)); err != nil {
		return "", nil, err
	}
	if err := writer.WriteField("map", string(bindingsJSON)); err != nil {
		return "", nil, err
	}
	for name, content := range req.Files {
		part, err := writer.CreateFormFile(name, name)
		if err != nil {
			return "", nil, err
		}
		if _, err := part.Write(content); err != nil {
			return "", nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return "", nil, err
	}
	return writer.FormDataContentType(), buf.Bytes(), nil
}
