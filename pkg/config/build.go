package config

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/mockwire/internal/matching"
	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/response"
	"github.com/getmockd/mockwire/pkg/template"
)

// templates expands {{...}} placeholders in response definitions. Named
// sequences are shared by every handler built from configuration.
var templates = template.New()

// Build creates one handler per entry, in order.
func Build(defs *Definitions) ([]handler.Handler, error) {
	if defs == nil {
		return nil, nil
	}
	handlers := make([]handler.Handler, 0, len(defs.Handlers))
	var errs []error
	for i := range defs.Handlers {
		h, err := BuildEntry(&defs.Handlers[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		handlers = append(handlers, h)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return handlers, nil
}

// BuildEntry creates the handler for a single inline entry. The handler
// takes the entry's ID when it has one.
func BuildEntry(e *Entry) (handler.Handler, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	g, err := newGuard(e)
	if err != nil {
		return nil, err
	}
	transformers, err := e.Response.transformers()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEntry, e.describe(), err)
	}
	compose := response.Respond
	if e.Response.Once {
		compose = compose.Once
	}
	rc := *e.Response
	templated := rc.templated()
	respond := func(tc *template.Context) (*response.Response, error) {
		if !templated {
			return compose(transformers...)
		}
		expanded := rc.expand(tc)
		ts, err := expanded.transformers()
		if err != nil {
			return nil, err
		}
		return compose(ts...)
	}

	var h handler.Handler
	if e.REST != nil {
		h = handler.Rest(strings.ToUpper(e.REST.Method), e.REST.Path, func(req *handler.RestRequest, res response.Composer, _ handler.RestContext) (*response.Response, error) {
			ok, err := g.allows(req.Request, newWhenEnv(req.Request, req.Params))
			if err != nil || !ok {
				return nil, err
			}
			return respond(template.NewContext(req.Request, req.Params))
		})
	} else {
		h, err = buildGraphQL(e.GraphQL, func(req *handler.GraphQLRequest, res response.Composer, _ handler.GraphQLContext) (*response.Response, error) {
			op := req.MatchedOperation()
			env := newWhenEnv(req.Request, nil)
			env.OperationName = op.Parsed.OperationName
			env.Variables = op.Variables
			ok, err := g.allows(req.Request, env)
			if err != nil || !ok {
				return nil, err
			}
			return respond(&template.Context{
				Request:       req.Request,
				OperationName: env.OperationName,
				Variables:     env.Variables,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEntry, e.describe(), err)
		}
	}

	info := h.Info()
	if e.ID != "" {
		info.ID = e.ID
	}
	if e.Source != "" {
		info.CallFrame = e.Source
	}
	return h, nil
}

func buildGraphQL(g *GraphQLMatch, resolver handler.GraphQLResolver) (handler.Handler, error) {
	var selector handler.Selector
	switch {
	case g.NamePattern != "":
		re, err := regexp.Compile(g.NamePattern)
		if err != nil {
			return nil, err
		}
		selector = re
	case g.Name != "":
		selector = g.Name
	}

	link := handler.Link(matching.AnyURL)
	if g.Endpoint != "" {
		link = handler.Link(g.Endpoint)
	}

	switch strings.ToLower(g.Operation) {
	case "query":
		return link.Query(selector, resolver), nil
	case "mutation":
		return link.Mutation(selector, resolver), nil
	default:
		return link.Operation(resolver), nil
	}
}

// guard holds the conditions an entry checks before answering.
type guard struct {
	source  string
	when    *vm.Program
	matcher *matching.Matcher
}

func newGuard(e *Entry) (*guard, error) {
	g := &guard{source: e.describe()}
	if cond := e.Match.conditions(); !cond.Empty() {
		m, err := matching.Compile(cond)
		if err != nil {
			return nil, err
		}
		g.matcher = m
	}
	if e.When != "" {
		program, err := compileWhen(e.When)
		if err != nil {
			return nil, err
		}
		g.when = program
	}
	return g, nil
}

func (g *guard) allows(req *request.Request, env whenEnv) (bool, error) {
	if !g.matcher.Match(req.Header, req.URL.Query(), req.Body()) {
		return false, nil
	}
	if g.when == nil {
		return true, nil
	}
	ok, err := evalWhen(g.when, env)
	if err != nil {
		return false, &whenError{source: g.source, err: err}
	}
	return ok, nil
}

// transformers converts the response definition into transformers, in
// the order status, headers, cookies, body, delay.
func (r *ResponseConfig) transformers() ([]response.Transformer, error) {
	if r.Passthrough {
		return []response.Transformer{response.Fetch()}, nil
	}

	var ts []response.Transformer
	if r.Status != 0 {
		if r.StatusText != "" {
			ts = append(ts, response.Status(r.Status, r.StatusText))
		} else {
			ts = append(ts, response.Status(r.Status))
		}
	}
	if len(r.Headers) > 0 {
		ts = append(ts, response.SetHeaders(r.Headers))
	}
	for _, name := range slices.Sorted(maps.Keys(r.Cookies)) {
		ts = append(ts, response.Cookie(name, r.Cookies[name]))
	}

	switch {
	case r.Body != "":
		ts = append(ts, response.Body(r.Body))
	case r.JSON != nil:
		ts = append(ts, response.JSON(r.JSON))
	case r.XML != "":
		ts = append(ts, response.XML(r.XML))
	}
	if r.Data != nil {
		ts = append(ts, response.Data(r.Data))
	}
	if r.Errors != nil {
		ts = append(ts, response.Errors(r.Errors))
	}

	switch r.Delay {
	case "":
	case RealisticDelay:
		ts = append(ts, response.Delay())
	default:
		d, err := time.ParseDuration(r.Delay)
		if err != nil {
			return nil, fmt.Errorf("response.delay: %w", err)
		}
		ts = append(ts, response.Delay(d))
	}
	return ts, nil
}

// templated reports whether any response field holds a placeholder.
func (r *ResponseConfig) templated() bool {
	if template.Contains(r.Body) || template.Contains(r.XML) {
		return true
	}
	for _, m := range []map[string]string{r.Headers, r.Cookies} {
		for _, v := range m {
			if template.Contains(v) {
				return true
			}
		}
	}
	return template.ContainsAny(r.JSON) || template.ContainsAny(r.Data) || template.ContainsAny(r.Errors)
}

// expand returns a copy of r with placeholders evaluated against ctx.
func (r ResponseConfig) expand(ctx *template.Context) ResponseConfig {
	r.Headers = templates.ExpandMap(r.Headers, ctx)
	r.Cookies = templates.ExpandMap(r.Cookies, ctx)
	r.Body = templates.Expand(r.Body, ctx)
	r.XML = templates.Expand(r.XML, ctx)
	r.JSON = templates.ExpandValue(r.JSON, ctx)
	r.Data = templates.ExpandValue(r.Data, ctx)
	r.Errors = templates.ExpandValue(r.Errors, ctx)
	return r
}
