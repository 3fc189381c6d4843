package template

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/mockwire/pkg/request"
)

// Context is what placeholders are evaluated against. A nil Context, or
// one without a request, expands request fields to the empty string.
type Context struct {
	Request *request.Request
	// Params holds the path parameters captured by the handler's URL mask.
	Params map[string]string

	OperationName string
	Variables     map[string]any
}

// NewContext creates a Context for a REST request.
func NewContext(req *request.Request, params map[string]string) *Context {
	return &Context{Request: req, Params: params}
}

func (c *Context) lookup(expr string) any {
	if c == nil {
		return nil
	}
	if rest, ok := strings.CutPrefix(expr, "graphql."); ok {
		return c.graphql(rest)
	}
	rest, ok := strings.CutPrefix(expr, "request.")
	if !ok || c.Request == nil {
		return nil
	}

	req := c.Request
	switch rest {
	case "method":
		return req.Method
	case "path":
		return req.URL.Path
	case "url":
		return req.URL.String()
	case "rawBody", "body":
		return req.Text()
	}

	field, name, _ := strings.Cut(rest, ".")
	if name == "" {
		return nil
	}
	switch field {
	case "body":
		return req.QueryFirst(jsonPath(name))
	case "query":
		return req.URL.Query().Get(name)
	case "header", "headers":
		return req.Header.Get(name)
	case "params", "pathParam":
		return c.Params[name]
	}
	return nil
}

func (c *Context) graphql(expr string) any {
	switch {
	case expr == "operationName":
		return c.OperationName
	case expr == "variables":
		return c.Variables
	}
	name, ok := strings.CutPrefix(expr, "variables.")
	if !ok || c.Variables == nil {
		return nil
	}
	path, err := jp.ParseString(jsonPath(name))
	if err != nil {
		return nil
	}
	if values := path.Get(c.Variables); len(values) > 0 {
		return values[0]
	}
	return nil
}

// jsonPath turns user.name or items[0].id into a rooted JSONPath.
func jsonPath(s string) string {
	if strings.HasPrefix(s, "$") {
		return s
	}
	return "$." + s
}

func format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
