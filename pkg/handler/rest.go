package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/mockwire/internal/matching"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/response"
)

// RestResolver produces the response for a matched REST request.
type RestResolver func(req *RestRequest, res response.Composer, ctx RestContext) (*response.Response, error)

// RestRequest is the request view passed to REST resolvers.
type RestRequest struct {
	*request.Request

	// Params holds the values of the mask's path parameters.
	Params map[string]string
}

// RestParsed is the parse result of a REST handler.
type RestParsed struct {
	Match matching.Match
}

// RestHandler matches requests by method and URL mask.
type RestHandler struct {
	base
	method   string
	mask     matching.Mask
	resolver RestResolver
}

// Rest declares a REST handler. An empty method matches any method. It panics
// if mask is neither a string nor a *regexp.Regexp.
func Rest(method string, mask matching.Mask, resolver RestResolver) *RestHandler {
	mustMask(mask)
	method = strings.ToUpper(method)

	header := method
	if header == "" {
		header = "ALL"
	}

	h := &RestHandler{method: method, mask: mask, resolver: resolver}
	h.init(Info{
		Kind:   KindRest,
		Header: header + " " + matching.String(mask),
		Mask:   mask,
		Method: method,
	})
	return h
}

// All declares a REST handler matching any method.
func All(mask matching.Mask, resolver RestResolver) *RestHandler {
	return Rest("", mask, resolver)
}

// Get declares a REST handler for GET requests.
func Get(mask matching.Mask, resolver RestResolver) *RestHandler {
	return Rest(http.MethodGet, mask, resolver)
}

// Post declares a REST handler for POST requests.
func Post(mask matching.Mask, resolver RestResolver) *RestHandler {
	return Rest(http.MethodPost, mask, resolver)
}

// Put declares a REST handler for PUT requests.
func Put(mask matching.Mask, resolver RestResolver) *RestHandler {
	return Rest(http.MethodPut, mask, resolver)
}

// Patch declares a REST handler for PATCH requests.
func Patch(mask matching.Mask, resolver RestResolver) *RestHandler {
	return Rest(http.MethodPatch, mask, resolver)
}

// Delete declares a REST handler for DELETE requests.
func Delete(mask matching.Mask, resolver RestResolver) *RestHandler {
	return Rest(http.MethodDelete, mask, resolver)
}

// Head declares a REST handler for HEAD requests.
func Head(mask matching.Mask, resolver RestResolver) *RestHandler {
	return Rest(http.MethodHead, mask, resolver)
}

// Options declares a REST handler for OPTIONS requests.
func Options(mask matching.Mask, resolver RestResolver) *RestHandler {
	return Rest(http.MethodOptions, mask, resolver)
}

func (h *RestHandler) Parse(req *request.Request) (any, error) {
	return &RestParsed{Match: matching.MatchRequestURL(req.URL, h.mask)}, nil
}

func (h *RestHandler) Predicate(req *request.Request, parsed any) bool {
	p, ok := parsed.(*RestParsed)
	if !ok || p == nil {
		return false
	}
	methodMatches := h.method == "" || strings.EqualFold(h.method, req.Method)
	return methodMatches && p.Match.Matches
}

func (h *RestHandler) PublicRequest(req *request.Request, parsed any) any {
	params := map[string]string{}
	if p, ok := parsed.(*RestParsed); ok && p != nil && p.Match.Params != nil {
		params = p.Match.Params
	}
	return &RestRequest{Request: req, Params: params}
}

func (h *RestHandler) Run(public any) (*response.Response, error) {
	req, ok := public.(*RestRequest)
	if !ok || h.resolver == nil {
		return nil, nil
	}
	return h.resolver(req, response.Respond, RestContext{})
}

func (h *RestHandler) Log(logger *slog.Logger, public any, res *response.Response, _ any) {
	req, ok := public.(*RestRequest)
	if !ok || res == nil || logger == nil {
		return
	}
	logger.Info("mocked request",
		"method", req.Method,
		"url", req.URL.String(),
		"status", res.Status,
		"handler", h.info.Header,
		"params", req.Params,
		"callFrame", h.info.CallFrame,
	)
}

// RestContext exposes the response transformers available to REST resolvers.
type RestContext struct{}

func (RestContext) Set(name, value string) response.Transformer { return response.Set(name, value) }

func (RestContext) Status(code int, text ...string) response.Transformer {
	return response.Status(code, text...)
}

func (RestContext) Cookie(name, value string) response.Transformer {
	return response.Cookie(name, value)
}

func (RestContext) Body(body string) response.Transformer { return response.Body(body) }

func (RestContext) Text(body string) response.Transformer { return response.Text(body) }

func (RestContext) JSON(v any, opts ...response.JSONOption) response.Transformer {
	return response.JSON(v, opts...)
}

func (RestContext) XML(body string) response.Transformer { return response.XML(body) }

func (RestContext) Delay(d ...time.Duration) response.Transformer { return response.Delay(d...) }

func (RestContext) Fetch() response.Transformer { return response.Fetch() }
