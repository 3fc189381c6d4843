package testing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/getmockd/mockwire/pkg/config"
)

// MockBuilder builds a REST handler using a fluent API. The handler is
// registered by Reply.
type MockBuilder struct {
	server *MockServer
	entry  config.Entry
	err    error
}

// Mock starts a handler for method and path. The path is a URL mask such as
// /users/:id; an empty method matches every method.
//
//	mock.Mock("GET", "/users/123").
//	    WithStatus(200).
//	    WithBody(`{"id": "123"}`).
//	    Reply()
func (m *MockServer) Mock(method, path string) *MockBuilder {
	return &MockBuilder{
		server: m,
		entry: config.Entry{
			REST:     &config.RestMatch{Method: method, Path: path},
			Response: &config.ResponseConfig{},
		},
	}
}

// setError records the first error encountered during building.
func (b *MockBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first error encountered during building.
func (b *MockBuilder) Err() error {
	return b.err
}

func (b *MockBuilder) match() *config.MatchConfig {
	if b.entry.Match == nil {
		b.entry.Match = &config.MatchConfig{}
	}
	return b.entry.Match
}

// WithID sets the handler ID reported in request logs.
func (b *MockBuilder) WithID(id string) *MockBuilder {
	b.entry.ID = id
	return b
}

// WithStatus sets the response status code. The default is 200.
func (b *MockBuilder) WithStatus(status int) *MockBuilder {
	b.entry.Response.Status = status
	return b
}

// WithBody sets the response body. Strings and byte slices are sent as is;
// other values are JSON encoded.
func (b *MockBuilder) WithBody(body any) *MockBuilder {
	switch v := body.(type) {
	case string:
		b.entry.Response.Body = v
	case []byte:
		b.entry.Response.Body = string(v)
	default:
		return b.WithJSON(v)
	}
	return b
}

// WithJSON sets a JSON response body and its Content-Type.
func (b *MockBuilder) WithJSON(body any) *MockBuilder {
	// Normalize through JSON so structs honor their tags.
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		b.setError(fmt.Errorf("WithJSON: %w", err))
		return b
	}
	b.entry.Response.JSON = v
	return b
}

// WithHeader adds a response header.
func (b *MockBuilder) WithHeader(key, value string) *MockBuilder {
	return b.WithHeaders(map[string]string{key: value})
}

// WithHeaders adds response headers.
func (b *MockBuilder) WithHeaders(headers map[string]string) *MockBuilder {
	if b.entry.Response.Headers == nil {
		b.entry.Response.Headers = make(map[string]string, len(headers))
	}
	for k, v := range headers {
		b.entry.Response.Headers[k] = v
	}
	return b
}

// WithDelay delays the response. Accepts duration strings like "100ms" and
// "realistic".
func (b *MockBuilder) WithDelay(delay string) *MockBuilder {
	if delay != config.RealisticDelay {
		if _, err := time.ParseDuration(delay); err != nil {
			b.setError(fmt.Errorf("WithDelay: invalid duration %q: %w", delay, err))
			return b
		}
	}
	b.entry.Response.Delay = delay
	return b
}

// WithDelayMs delays the response by ms milliseconds.
func (b *MockBuilder) WithDelayMs(ms int) *MockBuilder {
	return b.WithDelay((time.Duration(ms) * time.Millisecond).String())
}

// WithBodyContains only answers requests whose body contains substr.
func (b *MockBuilder) WithBodyContains(substr string) *MockBuilder {
	b.match().BodyContains = substr
	return b
}

// WithBodyEquals only answers requests whose body equals body.
func (b *MockBuilder) WithBodyEquals(body string) *MockBuilder {
	b.match().BodyEquals = body
	return b
}

// WithBodyPattern only answers requests whose body matches the regular
// expression.
func (b *MockBuilder) WithBodyPattern(pattern string) *MockBuilder {
	b.match().BodyPattern = pattern
	return b
}

// WithJSONPath only answers requests whose JSON body has expected at path.
func (b *MockBuilder) WithJSONPath(path string, expected any) *MockBuilder {
	m := b.match()
	if m.JSONPath == nil {
		m.JSONPath = make(map[string]any)
	}
	m.JSONPath[path] = expected
	return b
}

// WithQueryParam only answers requests with the query parameter. The value
// may use "*" wildcards.
func (b *MockBuilder) WithQueryParam(key, value string) *MockBuilder {
	m := b.match()
	if m.Query == nil {
		m.Query = make(map[string]string)
	}
	m.Query[key] = value
	return b
}

// WithRequestHeader only answers requests with the header. The value may
// use "*" wildcards.
func (b *MockBuilder) WithRequestHeader(key, value string) *MockBuilder {
	m := b.match()
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
	return b
}

// When only answers requests for which the expression holds, e.g.
// `params.id != "0" && headers["x-tenant"] == "acme"`.
func (b *MockBuilder) When(expression string) *MockBuilder {
	b.entry.When = expression
	return b
}

// Once answers a single request.
func (b *MockBuilder) Once() *MockBuilder {
	b.entry.Response.Once = true
	return b
}

// Passthrough answers with the real response.
func (b *MockBuilder) Passthrough() *MockBuilder {
	b.entry.Response.Passthrough = true
	return b
}

// Reply registers the handler, failing the test on configuration errors.
func (b *MockBuilder) Reply() {
	b.server.t.Helper()

	if b.err != nil {
		b.server.t.Fatalf("mock %s %s: %v", b.entry.REST.Method, b.entry.REST.Path, b.err)
		return
	}
	h, err := config.BuildEntry(&b.entry)
	if err != nil {
		b.server.t.Fatalf("mock %s %s: %v", b.entry.REST.Method, b.entry.REST.Path, err)
		return
	}
	b.server.Use(h)
}

// RespondWith sets the status and body.
func (b *MockBuilder) RespondWith(status int, body any) *MockBuilder {
	return b.WithStatus(status).WithBody(body)
}

// RespondJSON answers 200 with a JSON body.
func (b *MockBuilder) RespondJSON(body any) *MockBuilder {
	return b.WithStatus(200).WithJSON(body)
}

// RespondNotFound answers 404 with a JSON error.
func (b *MockBuilder) RespondNotFound() *MockBuilder {
	return b.WithStatus(404).WithJSON(map[string]string{"error": "not found"})
}

// RespondBadRequest answers 400 with a JSON error.
func (b *MockBuilder) RespondBadRequest(message string) *MockBuilder {
	return b.WithStatus(400).WithJSON(map[string]string{"error": message})
}

// RespondServerError answers 500 with a JSON error.
func (b *MockBuilder) RespondServerError(message string) *MockBuilder {
	return b.WithStatus(500).WithJSON(map[string]string{"error": message})
}

// RespondCreated answers 201 with a JSON body.
func (b *MockBuilder) RespondCreated(body any) *MockBuilder {
	return b.WithStatus(201).WithJSON(body)
}

// RespondNoContent answers 204.
func (b *MockBuilder) RespondNoContent() *MockBuilder {
	return b.WithStatus(204)
}
