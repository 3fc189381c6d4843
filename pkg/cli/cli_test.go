package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockwire/pkg/engine"
	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/response"
)

func TestApplyFilter(t *testing.T) {
	out := ResolveOutput{Outcome: "mocked", Status: 200, Body: map[string]any{"items": []any{"a", "b"}}}

	v, err := applyFilter(out, ".status")
	require.NoError(t, err)
	assert.EqualValues(t, 200, v)

	v, err = applyFilter(out, ".body.items[]")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	v, err = applyFilter(out, "")
	require.NoError(t, err)
	assert.Equal(t, out, v)

	_, err = applyFilter(out, ".[")
	assert.ErrorContains(t, err, "invalid jq expression")

	_, err = applyFilter(out, ".status | error(\"boom\")")
	assert.ErrorContains(t, err, "boom")
}

func TestBuildRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req, err := buildRequest([]string{"/users/1"}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, "GET", req.Method)
		assert.Equal(t, "http://localhost/users/1", req.URL.String())
	})

	t.Run("body implies POST and JSON", func(t *testing.T) {
		req, err := buildRequest([]string{"https://api.example.com/items"}, []string{"X-Trace:  abc "}, `{"a":1}`)
		require.NoError(t, err)
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "abc", req.Header.Get("X-Trace"))
		assert.Equal(t, `{"a":1}`, req.Text())
	})

	t.Run("explicit method and file body", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "body.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

		req, err := buildRequest([]string{"put", "/notes/1"}, []string{"Content-Type: text/plain"}, "@"+path)
		require.NoError(t, err)
		assert.Equal(t, "PUT", req.Method)
		assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
		assert.Equal(t, "hello", req.Text())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := buildRequest([]string{"/x"}, []string{"no-colon"}, "")
		assert.ErrorContains(t, err, "invalid header")

		_, err = buildRequest([]string{"/x"}, nil, "@"+filepath.Join(t.TempDir(), "missing"))
		assert.ErrorContains(t, err, "reading request body")
	})
}

func TestNewResolveOutput(t *testing.T) {
	h := handler.Get("/users/:id", func(_ *handler.RestRequest, res response.Composer, ctx handler.RestContext) (*response.Response, error) {
		return res(ctx.JSON(map[string]string{"id": "1"}))
	})
	h.Info().ID = "get-user"

	res := response.Default()
	require.NoError(t, response.JSON(map[string]string{"id": "1"})(res))

	out := newResolveOutput(&engine.Payload{Handler: h, Response: res})
	assert.Equal(t, "mocked", out.Outcome)
	assert.Equal(t, "GET /users/:id", out.Handler)
	assert.Equal(t, "get-user", out.HandlerID)
	assert.Equal(t, 200, out.Status)
	assert.Equal(t, "application/json", out.Headers["Content-Type"])
	assert.Equal(t, map[string]any{"id": "1"}, out.Body)

	declined := newResolveOutput(&engine.Payload{Handler: h})
	assert.Equal(t, "bypass", declined.Outcome)
	assert.Empty(t, declined.Handler)

	res = response.Default()
	require.NoError(t, response.Fetch()(res))
	assert.Equal(t, "passthrough", newResolveOutput(&engine.Payload{Handler: h, Response: res}).Outcome)
}

func TestPrintResponse(t *testing.T) {
	res := response.Default()
	require.NoError(t, response.Compose(
		response.Status(201),
		response.Set("X-B", "2"),
		response.Set("X-A", "1"),
		response.Text("created"),
	)(res))

	var buf bytes.Buffer
	require.NoError(t, printResponse(&buf, &engine.Payload{Response: res}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "201 Created", lines[0])
	assert.Equal(t, "created", lines[len(lines)-1])
	assert.Less(t, strings.Index(buf.String(), "X-A: 1"), strings.Index(buf.String(), "X-B: 2"))
}

func TestSourceFlags(t *testing.T) {
	_, err := (&sourceFlags{}).load()
	assert.ErrorIs(t, err, errNoSource)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "mocks.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
handlers:
  - rest: { method: GET, path: /pets }
    response: { json: [] }
`), 0o644))
	spec := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(spec, []byte(`
openapi: 3.0.3
info: { title: Pets, version: "1" }
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200": { description: ok }
`), 0o644))

	handlers, err := (&sourceFlags{configPath: cfg, openapiPath: spec}).load()
	require.NoError(t, err)
	require.Len(t, handlers, 2)
	assert.Equal(t, "GET /pets", handlers[0].Info().Header)
	assert.Equal(t, "listPets", handlers[1].Info().ID)
}

func TestBuildInfoString(t *testing.T) {
	b := BuildInfo{Version: "1.2.0", Commit: "abc123", Date: "2026-01-02", Go: "go1.26.2"}
	assert.Equal(t, "v1.2.0 (abc123, 2026-01-02, go1.26.2)", b.String())

	b.Version = "dev"
	assert.Equal(t, "dev (abc123, 2026-01-02, go1.26.2)", b.String())

	assert.Equal(t, runtime.Version(), currentBuild().Go)
}
