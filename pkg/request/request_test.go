package request

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BodyKinds(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantKind    BodyKind
	}{
		{name: "no body", wantKind: BodyAbsent},
		{name: "json content type", contentType: "application/json", body: `{"a":1}`, wantKind: BodyJSON},
		{name: "vendor json", contentType: "application/vnd.api+json; charset=utf-8", body: `[1,2]`, wantKind: BodyJSON},
		{name: "sniffed json", body: ` {"query":"{ a }"}`, wantKind: BodyJSON},
		{name: "invalid json stays raw", contentType: "application/json", body: `{nope`, wantKind: BodyRaw},
		{name: "plain text", contentType: "text/plain", body: "hello", wantKind: BodyRaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.contentType != "" {
				header.Set("Content-Type", tt.contentType)
			}
			r, err := New("post", "http://localhost/api", header, []byte(tt.body))
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, r.BodyKind())
			assert.Equal(t, "POST", r.Method)
			assert.NotEmpty(t, r.ID)
			assert.Equal(t, tt.body, r.Text())
		})
	}
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("GET", "http://[::1", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestNew_CopiesInputs(t *testing.T) {
	header := http.Header{"X-Test": []string{"1"}}
	body := []byte(`{"a":1}`)

	r := MustNew("GET", "/x", header, body)
	header.Set("X-Test", "2")
	body[2] = 'b'

	assert.Equal(t, "1", r.Header.Get("x-test"))
	assert.Equal(t, `{"a":1}`, r.Text())
}

func TestRequest_JSON(t *testing.T) {
	r, err := NewJSON("POST", "http://localhost/graphql", []map[string]any{{"query": "{ a }"}})
	require.NoError(t, err)

	v, ok := r.JSON()
	require.True(t, ok)
	assert.Len(t, v, 1)
	assert.True(t, r.IsJSONArray())

	var decoded []struct {
		Query string `json:"query"`
	}
	require.NoError(t, r.DecodeJSON(&decoded))
	assert.Equal(t, "{ a }", decoded[0].Query)
}

func TestRequest_DecodeJSON_NotJSON(t *testing.T) {
	r := MustNew("POST", "/x", nil, []byte("plain"))
	var v any
	assert.ErrorIs(t, r.DecodeJSON(&v), ErrNoJSONBody)
}

func TestRequest_Query(t *testing.T) {
	r, err := NewJSON("POST", "/users", map[string]any{
		"user": map[string]any{"id": "abc-123", "tags": []string{"a", "b"}},
	})
	require.NoError(t, err)

	values, err := r.Query("$.user.tags[*]")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, values)

	assert.Equal(t, "abc-123", r.QueryFirst("$.user.id"))
	assert.Nil(t, r.QueryFirst("$.missing"))

	_, err = r.Query("$[")
	assert.Error(t, err)
}

func TestFromHTTP(t *testing.T) {
	httpReq, err := http.NewRequest(http.MethodPost, "https://api.example.com/user?x=1", strings.NewReader(`{"name":"John"}`))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")

	r, err := FromHTTP(httpReq)
	require.NoError(t, err)

	assert.Equal(t, "POST", r.Method)
	assert.Equal(t, "api.example.com", r.URL.Host)
	assert.Equal(t, "/user", r.URL.Path)
	assert.Equal(t, BodyJSON, r.BodyKind())
	assert.Equal(t, `{"name":"John"}`, r.Text())
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func TestCapture_LargeBodyReplayedInFull(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), MaxBodySize+1024)
	src := &trackedBody{Reader: bytes.NewReader(payload)}
	httpReq, err := http.NewRequest(http.MethodPost, "https://api.example.com/upload", src)
	require.NoError(t, err)
	httpReq.ContentLength = int64(len(payload))
	original := httpReq.Body

	r, body, err := Capture(httpReq)
	require.NoError(t, err)
	require.NotNil(t, body)

	assert.Len(t, r.Body(), MaxBodySize)
	assert.Same(t, original, httpReq.Body, "the captured request is not modified")

	replayed, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, len(payload), len(replayed))
	assert.True(t, bytes.Equal(payload, replayed))

	require.NoError(t, body.Close())
	assert.True(t, src.closed)
}

func TestCapture_NoBody(t *testing.T) {
	httpReq, err := http.NewRequest(http.MethodGet, "https://api.example.com/user", nil)
	require.NoError(t, err)

	r, body, err := Capture(httpReq)
	require.NoError(t, err)
	assert.Nil(t, body)
	assert.Equal(t, BodyAbsent, r.BodyKind())
}

func TestFromHTTP_ServerRequest(t *testing.T) {
	httpReq, err := http.NewRequest(http.MethodGet, "/user", nil)
	require.NoError(t, err)
	httpReq.Host = "localhost:8080"

	r, err := FromHTTP(httpReq)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/user", r.URL.String())
	assert.Equal(t, BodyAbsent, r.BodyKind())
}

func TestRequest_WithContext(t *testing.T) {
	r := MustNew("GET", "/x", nil, nil)
	assert.Equal(t, context.Background(), r.Context())

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	r2 := r.WithContext(ctx)

	assert.Equal(t, "v", r2.Context().Value(key{}))
	assert.Equal(t, context.Background(), r.Context())
	assert.Equal(t, r.ID, r2.ID)
}

func TestBodyKind_String(t *testing.T) {
	assert.Equal(t, "absent", BodyAbsent.String())
	assert.Equal(t, "json", BodyJSON.String())
	assert.Equal(t, "raw", BodyRaw.String())
}
