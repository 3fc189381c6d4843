package testing

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/intercept"
	"github.com/getmockd/mockwire/pkg/response"
)

// fakeT records failures without failing the enclosing test.
type fakeT struct {
	testing.TB
	errors []string
	fatal  bool
}

func (f *fakeT) Helper() {}

func (f *fakeT) Errorf(format string, args ...any) {
	f.errors = append(f.errors, format)
}

func (f *fakeT) Fatalf(format string, args ...any) {
	f.errors = append(f.errors, format)
	f.fatal = true
}

func userHandler() handler.Handler {
	return handler.Get("/users/:id", func(req *handler.RestRequest, res response.Composer, ctx handler.RestContext) (*response.Response, error) {
		return res(ctx.JSON(map[string]string{"id": req.Params["id"]}))
	})
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestMockServer_HTTP(t *testing.T) {
	mock := New(t, []handler.Handler{userHandler()})

	resp, body := get(t, http.DefaultClient, mock.URL()+"/users/123?expand=true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"123"}`, body)

	mock.AssertCalled(t, "GET", "/users/:id")
	mock.AssertCalledTimes(t, "get", "/users/123", 1)
	mock.AssertNotCalled(t, "DELETE", "/users/:id")
	mock.AssertNoUnhandled(t)

	req := mock.LastRequest("GET", "/users/:id")
	require.NotNil(t, req)
	req.AssertMethod(t, "GET")
	req.AssertPath(t, "/users/123")
	req.AssertQueryParam(t, "expand", "true")
	assert.Equal(t, "GET /users/:id", req.Handler)
	assert.Equal(t, http.StatusOK, req.Status)

	assert.Equal(t, mock.URL(), mock.Start())
}

func TestMockServer_Client(t *testing.T) {
	mock := New(t, []handler.Handler{userHandler()})

	_, body := get(t, mock.Client(), "https://api.example.com/users/7")
	assert.JSONEq(t, `{"id":"7"}`, body)

	requests := mock.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "https://api.example.com/users/7", requests[0].URL)
}

func TestMockServer_Unhandled(t *testing.T) {
	t.Run("error policy fails the request", func(t *testing.T) {
		mock := New(t, nil)
		_, err := mock.Client().Get("https://api.example.com/missing")
		assert.True(t, errors.Is(err, intercept.ErrUnhandledRequest))

		ft := &fakeT{}
		mock.AssertNoUnhandled(ft)
		assert.Len(t, ft.errors, 1)
	})

	t.Run("listener answers 404", func(t *testing.T) {
		mock := New(t, nil)
		resp, _ := get(t, http.DefaultClient, mock.URL()+"/missing")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestMockServer_Builder(t *testing.T) {
	mock := New(t, nil)

	mock.Mock("POST", "/api/items").
		WithID("create-item").
		WithRequestHeader("Authorization", "Bearer *").
		WithBodyContains("widget").
		RespondCreated(map[string]string{"id": "new-item"}).
		WithHeader("X-Request-Id", "abc").
		Reply()

	post := func(auth, body string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, mock.URL()+"/api/items", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := post("Bearer token", `{"item":{"name":"widget","count":2}}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "abc", resp.Header.Get("X-Request-Id"))

	assert.Equal(t, http.StatusNotFound, post("", `{"item":{"name":"widget"}}`).StatusCode)
	assert.Equal(t, http.StatusNotFound, post("Bearer token", `{"item":{"name":"gadget"}}`).StatusCode)

	mock.AssertCalledTimes(t, "POST", "/api/items", 3)

	req := mock.LastRequest("POST", "/api/items")
	require.NotNil(t, req)
	req.AssertHeader(t, "Content-Type", "application/json")
	req.AssertHeaderContains(t, "Authorization", "Bearer")
	req.AssertJSONField(t, "item.name", "gadget")
	assert.Equal(t, "bypass", req.Outcome)
	assert.Zero(t, req.Status)

	first := mock.Requests()[0]
	assert.Equal(t, "create-item", first.HandlerID)
	first.AssertJSONField(t, "item.count", 2)
	first.AssertJSONField(t, "$.item.name", "widget")
	first.AssertJSONBody(t, map[string]any{"item": map[string]any{"name": "widget", "count": 2}})
	first.AssertBodyContains(t, "widget")
}

func TestMockServer_BuilderPrecedenceAndOnce(t *testing.T) {
	mock := New(t, nil)
	client := mock.Client()

	mock.Mock("GET", "/status").RespondWith(200, "fallback").Reply()
	mock.Mock("GET", "/status").RespondWith(503, "down").Once().Reply()

	resp, body := get(t, client, "https://svc.test/status")
	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, "down", body)

	resp, body = get(t, client, "https://svc.test/status")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "fallback", body)

	mock.Restore()
	resp, _ = get(t, client, "https://svc.test/status")
	assert.Equal(t, 503, resp.StatusCode)
}

func TestMockServer_BuilderWhen(t *testing.T) {
	mock := New(t, nil)

	mock.Mock("GET", "/users/:id").RespondNotFound().Reply()
	mock.Mock("GET", "/users/:id").
		When(`params.id == "1"`).
		RespondJSON(map[string]string{"name": "Ada"}).
		Reply()

	resp, body := get(t, mock.Client(), "https://svc.test/users/1")
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"name":"Ada"}`, body)

	resp, _ = get(t, mock.Client(), "https://svc.test/users/2")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestMockServer_BuilderErrors(t *testing.T) {
	ft := &fakeT{TB: t}
	mock := New(t, nil)
	mock.t = ft

	b := mock.Mock("GET", "/slow").WithDelay("soon")
	assert.Error(t, b.Err())
	b.Reply()
	assert.True(t, ft.fatal)

	ft.fatal = false
	mock.Mock("GET", "/bad").WithStatus(42).Reply()
	assert.True(t, ft.fatal)
	assert.Empty(t, mock.Interceptor().Handlers())
}

func TestMockServer_Reset(t *testing.T) {
	mock := New(t, []handler.Handler{userHandler()})
	mock.Mock("GET", "/users/:id").RespondNotFound().Reply()

	resp, _ := get(t, mock.Client(), "https://svc.test/users/1")
	assert.Equal(t, 404, resp.StatusCode)

	mock.Reset()
	assert.Empty(t, mock.Requests())

	resp, _ = get(t, mock.Client(), "https://svc.test/users/1")
	assert.Equal(t, 200, resp.StatusCode)
}

func TestMockServer_GraphQL(t *testing.T) {
	mock := New(t, []handler.Handler{
		handler.Query("GetUser", func(req *handler.GraphQLRequest, res response.Composer, ctx handler.GraphQLContext) (*response.Response, error) {
			return res(ctx.Data(map[string]any{"user": map[string]any{"id": req.Variables()["id"]}}))
		}),
	})

	payload, err := json.Marshal(map[string]any{
		"query":     "query GetUser($id: ID!) { user(id: $id) { id } }",
		"variables": map[string]any{"id": "42"},
	})
	require.NoError(t, err)

	resp, err := mock.Client().Post("https://api.example.com/graphql", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"user":{"id":"42"}}}`, string(body))

	mock.AssertOperationCalled(t, "GetUser")

	ft := &fakeT{}
	mock.AssertOperationCalled(ft, "ListUsers")
	assert.Len(t, ft.errors, 1)

	requests := mock.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, []string{"GetUser"}, requests[0].Operations)
}

func TestMockServer_PrintHandlers(t *testing.T) {
	mock := New(t, []handler.Handler{userHandler()})
	var buf bytes.Buffer
	mock.PrintHandlers(&buf)
	assert.Contains(t, buf.String(), "GET /users/:id")
}

func TestRequestLog_Assertions(t *testing.T) {
	r := RequestLog{
		Method:      "POST",
		Path:        "/items",
		Headers:     http.Header{"Content-Type": {"application/json"}},
		Body:        `{"name":"widget","tags":["a","b"]}`,
		QueryString: "page=2",
	}

	ft := &fakeT{}
	r.AssertBody(ft, `{"name":"widget","tags":["a","b"]}`)
	r.AssertJSONBody(ft, `{"tags":["a","b"],"name":"widget"}`)
	r.AssertHeaderExists(ft, "content-type")
	r.AssertQueryParamExists(ft, "page")
	r.AssertJSONField(ft, "tags[1]", "b")
	assert.Empty(t, ft.errors)

	r.AssertBody(ft, "other")
	r.AssertHeader(ft, "X-Missing", "v")
	r.AssertQueryParam(ft, "page", "3")
	r.AssertJSONField(ft, "name", "gadget")
	r.AssertJSONField(ft, "missing", "x")
	r.AssertMethod(ft, "GET")
	r.AssertPath(ft, "/other")
	assert.Len(t, ft.errors, 7)

	assert.Nil(t, (&RequestLog{Body: "not json"}).JSONField("name"))
}
