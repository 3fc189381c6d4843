package openapi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockwire/pkg/engine"
	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/request"
)

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: pets
          content:
            application/json:
              example:
                - id: 1
                  name: Rex
    post:
      operationId: createPet
      responses:
        "400":
          description: bad request
        "202":
          description: queued
        "201":
          description: created
          content:
            application/json:
              examples:
                b-second:
                  value: { id: 3 }
                a-first:
                  value: { id: 2 }
  /pets/{petId}:
    get:
      operationId: getPet
      parameters:
        - name: petId
          in: path
          required: true
          schema: { type: string }
      responses:
        default:
          description: a pet
          content:
            application/json:
              schema:
                type: object
                properties:
                  id: { type: integer }
                  name: { type: string, example: Rex }
                  tags:
                    type: array
                    items: { type: string, enum: [good, loud] }
  /health:
    get:
      responses:
        "204":
          description: healthy
  /robots.txt:
    get:
      responses:
        "200":
          description: robots
          content:
            text/plain:
              example: "User-agent: *"
`

func resolve(t *testing.T, handlers []handler.Handler, method, url string) *engine.Payload {
	t.Helper()
	payload, err := engine.Resolve(context.Background(), request.MustNew(method, url, nil, nil), handlers, nil)
	require.NoError(t, err)
	return payload
}

func TestConvertPath(t *testing.T) {
	assert.Equal(t, "/pets/:petId", ConvertPath("/pets/{petId}"))
	assert.Equal(t, "/a/:x/b/:y", ConvertPath("/a/{x}/b/{y}"))
	assert.Equal(t, "/files/:name.json", ConvertPath("/files/{name}.json"))
	assert.Equal(t, "/static", ConvertPath("/static"))
}

func TestFromDocument(t *testing.T) {
	handlers, err := FromDocument([]byte(petstore))
	require.NoError(t, err)

	var headers []string
	for _, h := range handlers {
		headers = append(headers, h.Info().Header)
	}
	assert.Equal(t, []string{
		"GET /health",
		"GET /pets",
		"POST /pets",
		"GET /pets/:petId",
		"GET /robots.txt",
	}, headers)
	assert.Equal(t, "listPets", handlers[1].Info().ID)
	assert.Equal(t, "openapi GET /pets", handlers[1].Info().CallFrame)
}

func TestFromDocument_Responses(t *testing.T) {
	handlers, err := FromDocument([]byte(petstore))
	require.NoError(t, err)

	t.Run("media example", func(t *testing.T) {
		payload := resolve(t, handlers, "GET", "/pets")
		require.NotNil(t, payload.Response)
		assert.Equal(t, 200, payload.Response.Status)
		assert.Equal(t, "application/json", payload.Response.Header.Get("Content-Type"))
		assert.JSONEq(t, `[{"id":1,"name":"Rex"}]`, string(payload.Response.Body))
	})

	t.Run("lowest 2xx and first named example", func(t *testing.T) {
		payload := resolve(t, handlers, "POST", "/pets")
		require.NotNil(t, payload.Response)
		assert.Equal(t, 201, payload.Response.Status)
		assert.JSONEq(t, `{"id":2}`, string(payload.Response.Body))
	})

	t.Run("default response sampled from schema", func(t *testing.T) {
		payload := resolve(t, handlers, "GET", "/pets/7")
		require.NotNil(t, payload.Response)
		assert.Equal(t, 200, payload.Response.Status)
		assert.JSONEq(t, `{"id":0,"name":"Rex","tags":["good"]}`, string(payload.Response.Body))
	})

	t.Run("no content", func(t *testing.T) {
		payload := resolve(t, handlers, "GET", "/health")
		require.NotNil(t, payload.Response)
		assert.Equal(t, 204, payload.Response.Status)
		assert.Empty(t, payload.Response.Body)
	})

	t.Run("text example", func(t *testing.T) {
		payload := resolve(t, handlers, "GET", "/robots.txt")
		require.NotNil(t, payload.Response)
		assert.Equal(t, "text/plain", payload.Response.Header.Get("Content-Type"))
		assert.Equal(t, "User-agent: *", string(payload.Response.Body))
	})
}

func TestWithBaseURL(t *testing.T) {
	handlers, err := FromDocument([]byte(petstore), WithBaseURL("https://api.example.com/"))
	require.NoError(t, err)

	payload := resolve(t, handlers, "GET", "https://api.example.com/pets")
	assert.NotNil(t, payload.Response)

	payload = resolve(t, handlers, "GET", "https://other.example.com/pets")
	assert.True(t, payload.Bypassed())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstore), 0o644))

	handlers, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, handlers, 5)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFromDocument_Errors(t *testing.T) {
	_, err := FromDocument([]byte("openapi: 3.0.3\ninfo: {title: x, version: '1'}\npaths: {}\n"))
	assert.ErrorIs(t, err, ErrNoOperations)

	_, err = FromDocument([]byte("{not yaml"))
	assert.Error(t, err)
}

func TestSample(t *testing.T) {
	schema := &openapi3.Schema{
		AllOf: []*openapi3.SchemaRef{
			{Value: &openapi3.Schema{
				Type:       &openapi3.Types{openapi3.TypeObject},
				Properties: openapi3.Schemas{"id": {Value: &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeString}, Format: "uuid"}}},
			}},
			{Value: &openapi3.Schema{
				Type:       &openapi3.Types{openapi3.TypeObject},
				Properties: openapi3.Schemas{"active": {Value: &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeBoolean}, Default: true}}},
			}},
		},
	}

	assert.Equal(t, map[string]any{
		"id":     "00000000-0000-0000-0000-000000000000",
		"active": true,
	}, Sample(schema))
	assert.Nil(t, Sample(nil))
	assert.Equal(t, 0.0, Sample(&openapi3.Schema{Type: &openapi3.Types{openapi3.TypeNumber}}))
}

const validated = `
openapi: 3.0.3
info:
  title: Pets
  version: 1.0.0
paths:
  /pets:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name: { type: string }
      responses:
        "201":
          description: created
  /pets/{petId}:
    get:
      parameters:
        - name: petId
          in: path
          required: true
          schema: { type: integer }
        - name: fields
          in: query
          schema: { type: string, enum: [short, full] }
      responses:
        "200":
          description: a pet
`

func TestWithRequestValidation(t *testing.T) {
	handlers, err := FromDocument([]byte(validated), WithRequestValidation())
	require.NoError(t, err)

	failures := func(t *testing.T, payload *engine.Payload) ValidationFailure {
		t.Helper()
		require.NotNil(t, payload.Response)
		assert.Equal(t, 400, payload.Response.Status)
		var f ValidationFailure
		require.NoError(t, payload.Response.DecodeJSON(&f))
		require.NotEmpty(t, f.Errors)
		return f
	}

	t.Run("valid requests get the mocked response", func(t *testing.T) {
		assert.Equal(t, 200, resolve(t, handlers, "GET", "/pets/7?fields=short").Response.Status)

		req, err := request.NewJSON("POST", "http://localhost/pets", map[string]string{"name": "Rex"})
		require.NoError(t, err)
		payload, err := engine.Resolve(context.Background(), req, handlers, nil)
		require.NoError(t, err)
		assert.Equal(t, 201, payload.Response.Status)
	})

	t.Run("path parameter", func(t *testing.T) {
		f := failures(t, resolve(t, handlers, "GET", "/pets/abc"))
		assert.Equal(t, "request validation failed", f.Error)
		assert.Equal(t, "petId", f.Errors[0].Field)
		assert.Equal(t, "path", f.Errors[0].Location)
	})

	t.Run("query parameter", func(t *testing.T) {
		f := failures(t, resolve(t, handlers, "GET", "/pets/7?fields=all"))
		assert.Equal(t, "fields", f.Errors[0].Field)
		assert.Equal(t, "query", f.Errors[0].Location)
	})

	t.Run("body", func(t *testing.T) {
		req, err := request.NewJSON("POST", "http://localhost/pets", map[string]int{"age": 3})
		require.NoError(t, err)
		payload, err := engine.Resolve(context.Background(), req, handlers, nil)
		require.NoError(t, err)

		f := failures(t, payload)
		assert.Equal(t, "body", f.Errors[0].Location)
		assert.Equal(t, "name", f.Errors[0].Field)
		assert.Contains(t, f.Errors[0].Message, "name")
	})

	t.Run("body property type", func(t *testing.T) {
		req, err := request.NewJSON("POST", "http://localhost/pets", map[string]int{"name": 5})
		require.NoError(t, err)
		payload, err := engine.Resolve(context.Background(), req, handlers, nil)
		require.NoError(t, err)

		f := failures(t, payload)
		assert.Equal(t, "body", f.Errors[0].Location)
		assert.Equal(t, "name", f.Errors[0].Field)
	})

	t.Run("disabled by default", func(t *testing.T) {
		plain, err := FromDocument([]byte(validated))
		require.NoError(t, err)
		assert.Equal(t, 200, resolve(t, plain, "GET", "/pets/abc").Response.Status)
	})
}

func TestFieldErrors(t *testing.T) {
	assert.Nil(t, fieldErrors(nil))

	err := openapi3.MultiError{
		&openapi3filter.RequestError{
			Parameter: &openapi3.Parameter{Name: "petId", In: "path"},
			Err:       errors.New("value abc: an invalid integer"),
		},
		&openapi3filter.RequestError{
			RequestBody: &openapi3.RequestBody{},
			Err: openapi3.MultiError{
				&openapi3.SchemaError{SchemaField: "required", Reason: `property "name" is missing`},
				&openapi3.SchemaError{SchemaField: "type", Reason: "value must be an integer"},
			},
		},
		errors.New("no route"),
	}

	got := fieldErrors(err)
	require.Len(t, got, 4)
	assert.Equal(t, FieldError{Field: "petId", Location: "path", Message: "value abc: an invalid integer"}, got[0])
	assert.Equal(t, FieldError{Location: "body", Message: `property "name" is missing`}, got[1])
	assert.Equal(t, FieldError{Location: "body", Message: "value must be an integer"}, got[2])
	assert.Equal(t, FieldError{Location: "request", Message: "no route"}, got[3])
}
