package handler

import (
	"log/slog"
	"time"

	"github.com/getmockd/mockwire/internal/matching"
	"github.com/getmockd/mockwire/pkg/graphql"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/response"
)

// GraphQLResolver produces the response for a matched GraphQL request.
type GraphQLResolver func(req *GraphQLRequest, res response.Composer, ctx GraphQLContext) (*response.Response, error)

// GraphQLRequest is the request view passed to GraphQL resolvers.
type GraphQLRequest struct {
	*request.Request

	// Batch reports whether the body was an array of operations.
	Batch bool

	// Operations holds one entry per operation, in request order.
	Operations []GraphQLOperation

	// Matched is the index in Operations of the first operation the
	// handler's selector accepted.
	Matched int
}

// GraphQLOperation is a single operation of a GraphQL request.
type GraphQLOperation struct {
	Query         string
	OperationName string
	// Variables is never nil.
	Variables map[string]any
	// Parsed is the parse record of this operation's query.
	Parsed graphql.ParsedOperation
}

// MatchedOperation returns the operation the handler matched. For a
// single request that is the only operation.
func (r *GraphQLRequest) MatchedOperation() GraphQLOperation {
	if r.Matched < 0 || r.Matched >= len(r.Operations) {
		return GraphQLOperation{Variables: map[string]any{}}
	}
	return r.Operations[r.Matched]
}

// Variables returns the variables of the matched operation.
func (r *GraphQLRequest) Variables() map[string]any {
	return r.MatchedOperation().Variables
}

// OperationName returns the parsed name of the matched operation.
func (r *GraphQLRequest) OperationName() string {
	return r.MatchedOperation().Parsed.OperationName
}

// GraphQLParsed is the parse result of a GraphQL handler.
type GraphQLParsed struct {
	Batch      bool
	Payloads   []graphql.Payload
	Operations []graphql.ParsedOperation
}

// GraphQLHandler matches GraphQL operations by kind and name.
type GraphQLHandler struct {
	base
	kind     graphql.OperationKind
	selector Selector
	mask     matching.Mask
	resolver GraphQLResolver
}

// GraphQLLink scopes GraphQL handlers to an endpoint.
type GraphQLLink struct {
	mask matching.Mask
}

// Link returns a GraphQLLink whose handlers only match requests to mask.
func Link(mask matching.Mask) *GraphQLLink {
	mustMask(mask)
	return &GraphQLLink{mask: mask}
}

// Query declares a handler for query operations matching selector.
func (l *GraphQLLink) Query(selector Selector, resolver GraphQLResolver) *GraphQLHandler {
	return newGraphQL(graphql.KindQuery, selector, l.mask, resolver)
}

// Mutation declares a handler for mutation operations matching selector.
func (l *GraphQLLink) Mutation(selector Selector, resolver GraphQLResolver) *GraphQLHandler {
	return newGraphQL(graphql.KindMutation, selector, l.mask, resolver)
}

// Operation declares a handler for every named operation.
func (l *GraphQLLink) Operation(resolver GraphQLResolver) *GraphQLHandler {
	return newGraphQL(graphql.KindAll, nil, l.mask, resolver)
}

// Query declares a handler for query operations matching selector on any endpoint.
func Query(selector Selector, resolver GraphQLResolver) *GraphQLHandler {
	return newGraphQL(graphql.KindQuery, selector, matching.AnyURL, resolver)
}

// Mutation declares a handler for mutation operations matching selector on any endpoint.
func Mutation(selector Selector, resolver GraphQLResolver) *GraphQLHandler {
	return newGraphQL(graphql.KindMutation, selector, matching.AnyURL, resolver)
}

// Operation declares a handler for every named operation on any endpoint.
func Operation(resolver GraphQLResolver) *GraphQLHandler {
	return newGraphQL(graphql.KindAll, nil, matching.AnyURL, resolver)
}

func newGraphQL(kind graphql.OperationKind, selector Selector, mask matching.Mask, resolver GraphQLResolver) *GraphQLHandler {
	mustSelector(selector)

	header := string(kind) + " " + selectorString(selector)
	if m := matching.String(mask); m != matching.AnyURL {
		header += " (" + m + ")"
	}

	h := &GraphQLHandler{kind: kind, selector: selector, mask: mask, resolver: resolver}
	h.init(Info{
		Kind:          KindGraphQL,
		Header:        header,
		Mask:          mask,
		OperationType: kind,
		OperationName: selector,
	})
	return h
}

func (h *GraphQLHandler) Parse(req *request.Request) (any, error) {
	payloads, batch := graphql.DecodeRequest(req)
	if len(payloads) == 0 {
		return nil, nil
	}
	ops, err := graphql.ParseOperations(payloads, h.kind)
	if err != nil {
		return nil, err
	}
	return &GraphQLParsed{Batch: batch, Payloads: payloads, Operations: ops}, nil
}

func (h *GraphQLHandler) Predicate(req *request.Request, parsed any) bool {
	p, ok := parsed.(*GraphQLParsed)
	if !ok || p == nil || len(p.Operations) == 0 {
		return false
	}
	for _, op := range p.Operations {
		if op.OperationName == "" {
			return false
		}
	}
	if !matching.MatchRequestURL(req.URL, h.mask).Matches {
		return false
	}
	for _, op := range p.Operations {
		if selectorMatches(h.selector, op.OperationName) {
			return true
		}
	}
	return false
}

func (h *GraphQLHandler) PublicRequest(req *request.Request, parsed any) any {
	public := &GraphQLRequest{Request: req}
	p, ok := parsed.(*GraphQLParsed)
	if !ok || p == nil {
		return public
	}

	public.Batch = p.Batch
	public.Operations = make([]GraphQLOperation, 0, len(p.Payloads))
	matched := -1
	for i, payload := range p.Payloads {
		vars := payload.Variables
		if vars == nil {
			vars = map[string]any{}
		}
		parsed := findParsed(p.Operations, payload.Query)
		if matched < 0 && parsed.OperationName != "" && selectorMatches(h.selector, parsed.OperationName) {
			matched = i
		}
		public.Operations = append(public.Operations, GraphQLOperation{
			Query:         payload.Query,
			OperationName: payload.OperationName,
			Variables:     vars,
			Parsed:        parsed,
		})
	}
	if matched >= 0 {
		public.Matched = matched
	}
	return public
}

func findParsed(ops []graphql.ParsedOperation, query string) graphql.ParsedOperation {
	for _, op := range ops {
		if op.Query == query {
			return op
		}
	}
	return graphql.ParsedOperation{}
}

func (h *GraphQLHandler) Run(public any) (*response.Response, error) {
	req, ok := public.(*GraphQLRequest)
	if !ok || h.resolver == nil {
		return nil, nil
	}
	return h.resolver(req, response.Respond, GraphQLContext{})
}

func (h *GraphQLHandler) Log(logger *slog.Logger, public any, res *response.Response, parsed any) {
	req, ok := public.(*GraphQLRequest)
	p, _ := parsed.(*GraphQLParsed)
	if !ok || p == nil || res == nil || logger == nil {
		return
	}
	for _, op := range p.Operations {
		logger.Info("mocked graphql operation",
			"operationType", op.OperationType,
			"operationName", op.OperationName,
			"url", req.URL.String(),
			"batch", p.Batch,
			"status", res.Status,
			"handler", h.info.Header,
			"callFrame", h.info.CallFrame,
		)
	}
}

// GraphQLContext exposes the response transformers available to GraphQL resolvers.
type GraphQLContext struct{}

func (GraphQLContext) Set(name, value string) response.Transformer { return response.Set(name, value) }

func (GraphQLContext) Status(code int, text ...string) response.Transformer {
	return response.Status(code, text...)
}

func (GraphQLContext) Delay(d ...time.Duration) response.Transformer { return response.Delay(d...) }

func (GraphQLContext) Fetch() response.Transformer { return response.Fetch() }

func (GraphQLContext) Data(payload any) response.Transformer { return response.Data(payload) }

func (GraphQLContext) Errors(errs any) response.Transformer { return response.Errors(errs) }
