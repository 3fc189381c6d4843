package openapi

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"

	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/response"
)

// FieldError is one request validation failure.
type FieldError struct {
	// Field is the parameter name or the dotted path of a body property.
	Field string `json:"field,omitempty"`
	// Location is path, query, header, cookie, body or request.
	Location string `json:"location"`
	Message  string `json:"message"`
}

// ValidationFailure is the body of the 400 response sent for invalid requests.
type ValidationFailure struct {
	Error  string       `json:"error"`
	Errors []FieldError `json:"errors"`
}

// requestValidator checks requests against a single operation.
type requestValidator struct {
	route *routers.Route
}

func newRequestValidator(doc *openapi3.T, path, method string) *requestValidator {
	item := doc.Paths.Value(path)
	return &requestValidator{route: &routers.Route{
		Spec:      doc,
		Path:      path,
		PathItem:  item,
		Method:    method,
		Operation: item.GetOperation(method),
	}}
}

// validate returns the validation failures of req, none when it is valid.
func (v *requestValidator) validate(req *handler.RestRequest) []FieldError {
	r, err := http.NewRequestWithContext(req.Context(), req.Method, req.URL.String(), bytes.NewReader(req.Body()))
	if err != nil {
		return []FieldError{{Location: "request", Message: err.Error()}}
	}
	r.Header = req.Header.Clone()

	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: req.Params,
		Route:      v.route,
		Options: &openapi3filter.Options{
			MultiError:         true,
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}
	return fieldErrors(openapi3filter.ValidateRequest(r.Context(), input))
}

// reject builds the 400 response for errs.
func reject(res response.Composer, errs []FieldError) (*response.Response, error) {
	return res(
		response.Status(http.StatusBadRequest),
		response.JSON(ValidationFailure{Error: "request validation failed", Errors: errs}),
	)
}

func fieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case openapi3.MultiError:
		var out []FieldError
		for _, item := range e {
			out = append(out, fieldErrors(item)...)
		}
		return out
	case *openapi3filter.RequestError:
		return requestFieldErrors(e)
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		return requestFieldErrors(reqErr)
	}
	return []FieldError{{Location: "request", Message: err.Error()}}
}

// requestFieldErrors flattens a request error. Body schema failures come
// wrapped in a MultiError, one entry per violated property.
func requestFieldErrors(reqErr *openapi3filter.RequestError) []FieldError {
	base := FieldError{Location: "request", Message: reqErr.Error()}
	switch {
	case reqErr.Parameter != nil:
		base.Field = reqErr.Parameter.Name
		base.Location = reqErr.Parameter.In
	case reqErr.RequestBody != nil:
		base.Location = "body"
	}
	if reqErr.Reason != "" {
		base.Message = reqErr.Reason
	}

	var causes []error
	switch inner := reqErr.Err.(type) {
	case nil:
		return []FieldError{base}
	case openapi3.MultiError:
		causes = inner
	default:
		causes = []error{inner}
	}

	out := make([]FieldError, 0, len(causes))
	for _, cause := range causes {
		fe := base
		fe.Message = cause.Error()
		var schemaErr *openapi3.SchemaError
		if errors.As(cause, &schemaErr) {
			fe.Message = schemaErr.Reason
			if fe.Location == "body" {
				fe.Field = strings.Join(schemaErr.JSONPointer(), ".")
			}
		}
		out = append(out, fe)
	}
	return out
}
