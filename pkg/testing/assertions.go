package testing

import (
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/mockwire/pkg/requestlog"
)

// RequestLog is a captured request for assertions.
type RequestLog struct {
	Method      string
	URL         string
	Path        string
	Headers     http.Header
	Body        string
	QueryString string

	// HandlerID is the ID of the handler that answered, empty when none did.
	HandlerID string
	// Handler is the header of the handler that answered.
	Handler string
	// Outcome is one of the requestlog outcomes.
	Outcome string
	// Status is the mocked response status, zero when nothing was mocked.
	Status int
	// Operations lists the GraphQL operation names of the request.
	Operations []string
}

func newRequestLog(entry *requestlog.Entry) RequestLog {
	r := RequestLog{
		Method:      entry.Method,
		URL:         entry.URL,
		Path:        entry.Path,
		Headers:     entry.Headers,
		Body:        entry.Body,
		QueryString: entry.QueryString,
		HandlerID:   entry.HandlerID,
		Handler:     entry.Handler,
		Outcome:     entry.Outcome,
		Status:      entry.ResponseStatus,
	}
	if r.Headers == nil {
		r.Headers = http.Header{}
	}
	if entry.GraphQL != nil {
		for _, op := range entry.GraphQL.Operations {
			r.Operations = append(r.Operations, op.OperationName)
		}
	}
	return r
}

// AssertJSONBody asserts that the request body matches the expected JSON.
// The expected value can be a string, []byte, or any value that will be
// JSON encoded.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var expectedJSON, actualJSON any
	var raw []byte
	switch v := expected.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		raw = data
	}
	if err := json.Unmarshal(raw, &expectedJSON); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &actualJSON); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			expectedBytes, actualBytes)
	}
}

// AssertBody asserts that the request body exactly matches the expected string.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts that the request body contains the expected substring.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()

	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertHeader asserts that the request had the header with the expected
// value. Header names are case-insensitive.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	values := r.Headers.Values(key)
	if len(values) == 0 {
		t.Errorf("request does not have header %q", key)
		return
	}
	if values[0] != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, values[0])
	}
}

// AssertHeaderExists asserts that the request had the header with any value.
func (r *RequestLog) AssertHeaderExists(t testing.TB, key string) {
	t.Helper()

	if len(r.Headers.Values(key)) == 0 {
		t.Errorf("request does not have header %q", key)
	}
}

// AssertHeaderContains asserts that the header value contains substr.
func (r *RequestLog) AssertHeaderContains(t testing.TB, key, substr string) {
	t.Helper()

	values := r.Headers.Values(key)
	if len(values) == 0 {
		t.Errorf("request does not have header %q", key)
		return
	}
	if !strings.Contains(values[0], substr) {
		t.Errorf("header %q value does not contain %q\nvalue: %q", key, substr, values[0])
	}
}

// AssertQueryParam asserts that the request had the query parameter with
// the expected value.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	params, _ := url.ParseQuery(r.QueryString)
	if !params.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := params.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertQueryParamExists asserts that the request had the query parameter.
func (r *RequestLog) AssertQueryParamExists(t testing.TB, key string) {
	t.Helper()

	params, _ := url.ParseQuery(r.QueryString)
	if !params.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
	}
}

// AssertMethod asserts that the request used the expected HTTP method.
func (r *RequestLog) AssertMethod(t testing.TB, expected string) {
	t.Helper()

	if !strings.EqualFold(r.Method, expected) {
		t.Errorf("request method mismatch\nexpected: %q\nactual: %q", expected, r.Method)
	}
}

// AssertPath asserts that the request path matches.
func (r *RequestLog) AssertPath(t testing.TB, expected string) {
	t.Helper()

	if r.Path != expected {
		t.Errorf("request path mismatch\nexpected: %q\nactual: %q", expected, r.Path)
	}
}

// JSONField extracts a field from the JSON body. Fields use dot notation
// ("user.name") or JSONPath ("$.items[0].id"). It returns nil when the body
// is not JSON or the field does not exist.
func (r *RequestLog) JSONField(field string) any {
	var data any
	if err := json.Unmarshal([]byte(r.Body), &data); err != nil {
		return nil
	}
	if !strings.HasPrefix(field, "$") {
		field = "$." + field
	}
	x, err := jp.ParseString(field)
	if err != nil {
		return nil
	}
	if values := x.Get(data); len(values) > 0 {
		return values[0]
	}
	return nil
}

// AssertJSONField asserts that a JSON field in the request body has the
// expected value. Numbers compare by value.
func (r *RequestLog) AssertJSONField(t testing.TB, field string, expected any) {
	t.Helper()

	actual := r.JSONField(field)
	if actual == nil {
		t.Errorf("JSON field %q not found in request body: %s", field, r.Body)
		return
	}

	if !jsonEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			field, expected, expected, actual, actual)
	}
}

func jsonEqual(actual, expected any) bool {
	data, err := json.Marshal(expected)
	if err != nil {
		return false
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return false
	}
	return reflect.DeepEqual(actual, normalized)
}
