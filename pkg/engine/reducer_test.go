package engine

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/response"
)

func payloadWith(t *testing.T, h handler.Handler, ts ...response.Transformer) *Payload {
	t.Helper()
	res, err := response.Respond(ts...)
	require.NoError(t, err)
	return &Payload{Handler: h, Response: res}
}

func TestDefaultReducer(t *testing.T) {
	req := request.MustNew("GET", "/x", nil, nil)
	h1 := handler.Get("/x", nil)
	h2 := handler.Get("/x", nil)

	declined := &Payload{Handler: h1}
	answered := payloadWith(t, h2, response.Text("ok"))

	assert.Same(t, answered, DefaultReducer.Reduce(req, []*Payload{declined, answered}))
	assert.Same(t, declined, DefaultReducer.Reduce(req, []*Payload{declined}))
	assert.Nil(t, DefaultReducer.Reduce(req, nil))
}

func TestGraphQLBatchReducer_Merge(t *testing.T) {
	req, err := request.NewJSON(http.MethodPost, "/graphql", []any{
		map[string]any{"query": "query A { a }"},
		map[string]any{"query": "query B { b }"},
		map[string]any{"query": "query C { c }"},
		map[string]any{"query": "query D { d }"},
	})
	require.NoError(t, err)

	h := handler.Operation(nil)
	first := payloadWith(t, h, response.Status(http.StatusCreated), response.Set("X-First", "1"), response.JSON(map[string]any{"data": map[string]any{"a": 1}}))
	declined := &Payload{Handler: h}
	broken := payloadWith(t, h, response.Body("{not json"))
	last := payloadWith(t, h, response.JSON(map[string]any{"data": map[string]any{"d": 4}}))

	got := GraphQLBatchReducer.Reduce(req, []*Payload{declined, first, broken, last})
	require.NotNil(t, got)
	require.NotNil(t, got.Response)

	assert.JSONEq(t, `[{"data":{"a":1}},{"data":{"d":4}}]`, string(got.Response.Body))
	assert.Equal(t, http.StatusCreated, got.Response.Status)
	assert.Equal(t, "1", got.Response.Header.Get("X-First"))

	// The merged envelope is a copy.
	assert.JSONEq(t, `{"data":{"a":1}}`, string(first.Response.Body))
}

func TestGraphQLBatchReducer_AllDeclined(t *testing.T) {
	req, err := request.NewJSON(http.MethodPost, "/graphql", []any{map[string]any{"query": "query A { a }"}})
	require.NoError(t, err)

	h := handler.Operation(nil)
	got := GraphQLBatchReducer.Reduce(req, []*Payload{{Handler: h}})
	require.NotNil(t, got.Response)
	assert.Equal(t, http.StatusOK, got.Response.Status)
	assert.Equal(t, "OK", got.Response.StatusText)
	assert.Equal(t, "[]", string(got.Response.Body))
	assert.Same(t, h, got.Handler)
}

func TestGraphQLBatchReducer_SingleBody(t *testing.T) {
	req, err := request.NewJSON(http.MethodPost, "/graphql", map[string]any{"query": "query A { a }"})
	require.NoError(t, err)

	h := handler.Operation(nil)
	answered := payloadWith(t, h, response.JSON(map[string]any{"data": 1}))

	assert.Same(t, answered, GraphQLBatchReducer.Reduce(req, []*Payload{answered}))
	assert.Nil(t, GraphQLBatchReducer.Reduce(req, nil))
}

func TestGraphQLBatchReducer_RestArrayBody(t *testing.T) {
	req, err := request.NewJSON(http.MethodPost, "/items", []any{1, 2, 3})
	require.NoError(t, err)

	h := handler.Post("/items", nil)
	answered := payloadWith(t, h, response.Status(http.StatusCreated), response.Text("created"))

	got := GraphQLBatchReducer.Reduce(req, []*Payload{answered})
	assert.Same(t, answered, got)
	assert.Equal(t, "created", string(got.Response.Body))
}
