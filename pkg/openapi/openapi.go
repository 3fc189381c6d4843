// Package openapi generates REST handlers from an OpenAPI 3 document.
//
// Every path and method becomes one handler answering with the example of
// the operation's lowest 2xx response, or of its default response:
//
//	handlers, err := openapi.Load("petstore.yaml", openapi.WithBaseURL("https://api.example.com"))
//
// Path templates such as /pets/{petId} are turned into /pets/:petId masks.
// Media examples take precedence over named examples, which take
// precedence over schema examples. When a JSON response has no example at
// all, a sample is synthesized from its schema.
//
// WithRequestValidation checks requests against the operation's parameters
// and request body first, answering 400 with the failures.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/response"
)

// ErrNoOperations is returned for documents without operations.
var ErrNoOperations = errors.New("openapi document has no operations")

// Option configures handler generation.
type Option func(*options)

type options struct {
	baseURL          string
	validate         bool
	validateRequests bool
}

// WithBaseURL prefixes every mask, e.g. with an API origin.
func WithBaseURL(base string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(base, "/")
	}
}

// WithoutValidation skips validating the document before generating handlers.
func WithoutValidation() Option {
	return func(o *options) {
		o.validate = false
	}
}

// WithRequestValidation makes handlers answer 400 with a ValidationFailure
// body to requests whose parameters or body do not satisfy the operation.
func WithRequestValidation() Option {
	return func(o *options) {
		o.validateRequests = true
	}
}

// Load reads an OpenAPI document from a file.
func Load(path string, opts ...Option) ([]handler.Handler, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec from file %s: %w", path, err)
	}
	return FromSpec(doc, opts...)
}

// FromDocument parses an OpenAPI document in JSON or YAML.
func FromDocument(data []byte, opts ...Option) ([]handler.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec: %w", err)
	}
	return FromSpec(doc, opts...)
}

// FromSpec returns one handler per operation, ordered by path then method.
// Operation IDs become handler IDs.
func FromSpec(doc *openapi3.T, opts ...Option) ([]handler.Handler, error) {
	o := options{validate: true}
	for _, opt := range opts {
		opt(&o)
	}

	if o.validate {
		if err := doc.Validate(context.Background()); err != nil {
			return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
		}
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, ErrNoOperations
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var handlers []handler.Handler
	for _, path := range keys {
		ops := paths[path].Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		slices.Sort(methods)

		for _, method := range methods {
			op := ops[method]
			transformers := operationResponse(op)
			var validator *requestValidator
			if o.validateRequests {
				validator = newRequestValidator(doc, path, method)
			}
			h := handler.Rest(method, o.baseURL+ConvertPath(path), func(req *handler.RestRequest, res response.Composer, _ handler.RestContext) (*response.Response, error) {
				if validator != nil {
					if errs := validator.validate(req); len(errs) > 0 {
						return reject(res, errs)
					}
				}
				return res(transformers...)
			})
			if op.OperationID != "" {
				h.Info().ID = op.OperationID
			}
			h.Info().CallFrame = "openapi " + method + " " + path
			handlers = append(handlers, h)
		}
	}
	if len(handlers) == 0 {
		return nil, ErrNoOperations
	}
	return handlers, nil
}

var pathParam = regexp.MustCompile(`\{([^}/]+)\}`)

// ConvertPath turns an OpenAPI path template into a URL mask.
func ConvertPath(path string) string {
	return pathParam.ReplaceAllString(path, ":$1")
}

// operationResponse picks the response to mock: the lowest 2xx status,
// else the default response answered with 200.
func operationResponse(op *openapi3.Operation) []response.Transformer {
	if op.Responses == nil {
		return nil
	}

	status, ref := 0, (*openapi3.ResponseRef)(nil)
	for key, r := range op.Responses.Map() {
		code, err := strconv.Atoi(key)
		if err != nil || code < 200 || code > 299 {
			continue
		}
		if status == 0 || code < status {
			status, ref = code, r
		}
	}
	if ref == nil {
		ref = op.Responses.Default()
		status = 200
	}
	if ref == nil || ref.Value == nil {
		return []response.Transformer{response.Status(200)}
	}

	ts := []response.Transformer{response.Status(status)}
	return append(ts, contentTransformers(ref.Value.Content)...)
}

func contentTransformers(content openapi3.Content) []response.Transformer {
	if len(content) == 0 {
		return nil
	}

	types := make([]string, 0, len(content))
	for ct := range content {
		types = append(types, ct)
	}
	slices.SortFunc(types, func(a, b string) int {
		// JSON media types first, then alphabetical.
		ja, jb := isJSON(a), isJSON(b)
		switch {
		case ja && !jb:
			return -1
		case jb && !ja:
			return 1
		}
		return strings.Compare(a, b)
	})

	ct := types[0]
	media := content[ct]
	example, ok := mediaExample(media)
	if !ok && isJSON(ct) && media != nil && media.Schema != nil {
		example, ok = Sample(media.Schema.Value), true
	}
	if !ok {
		return []response.Transformer{contentType(ct)}
	}

	if s, isString := example.(string); isString && !isJSON(ct) {
		return []response.Transformer{response.Body(s), contentType(ct)}
	}
	return []response.Transformer{response.JSON(example), contentType(ct)}
}

// contentType replaces the Content-Type header, unlike response.Set which
// appends.
func contentType(ct string) response.Transformer {
	return func(r *response.Response) error {
		r.Header.Set("Content-Type", ct)
		return nil
	}
}

func mediaExample(media *openapi3.MediaType) (any, bool) {
	if media == nil {
		return nil, false
	}
	if media.Example != nil {
		return media.Example, true
	}
	if len(media.Examples) > 0 {
		names := make([]string, 0, len(media.Examples))
		for name := range media.Examples {
			names = append(names, name)
		}
		slices.Sort(names)
		if ex := media.Examples[names[0]]; ex != nil && ex.Value != nil {
			return ex.Value.Value, true
		}
	}
	if media.Schema != nil && media.Schema.Value != nil && media.Schema.Value.Example != nil {
		return media.Schema.Value.Example, true
	}
	return nil, false
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "json")
}
