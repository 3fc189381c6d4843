package engine

import (
	"encoding/json"
	"net/http"

	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/response"
)

// Reducer combines the payloads of every relevant handler, in declaration
// order, into the payload of the dispatch. Returning nil means bypass.
type Reducer interface {
	Reduce(req *request.Request, payloads []*Payload) *Payload
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc func(req *request.Request, payloads []*Payload) *Payload

func (f ReducerFunc) Reduce(req *request.Request, payloads []*Payload) *Payload {
	return f(req, payloads)
}

var (
	// DefaultReducer picks the first payload with a response, or the first
	// payload when every handler declined.
	DefaultReducer Reducer = ReducerFunc(firstResponse)

	// GraphQLBatchReducer merges the JSON bodies of every payload into one
	// JSON array when a GraphQL handler answered a request whose body is a
	// JSON array. Otherwise it behaves like DefaultReducer.
	GraphQLBatchReducer Reducer = ReducerFunc(mergeBatch)
)

func firstResponse(_ *request.Request, payloads []*Payload) *Payload {
	for _, p := range payloads {
		if p != nil && p.Response != nil {
			return p
		}
	}
	if len(payloads) == 0 {
		return nil
	}
	return payloads[0]
}

func mergeBatch(req *request.Request, payloads []*Payload) *Payload {
	base := firstResponse(req, payloads)
	if base == nil || !req.IsJSONArray() || !isGraphQL(base.Handler) {
		return base
	}

	// Payloads without a parseable JSON body are dropped, not replaced by null.
	bodies := make([]json.RawMessage, 0, len(payloads))
	for _, p := range payloads {
		if p == nil || p.Response == nil || len(p.Response.Body) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(p.Response.Body, &v); err != nil || v == nil {
			continue
		}
		bodies = append(bodies, json.RawMessage(p.Response.Body))
	}

	merged, err := json.Marshal(bodies)
	if err != nil {
		return base
	}

	envelope := base.Response.Clone()
	if envelope == nil {
		envelope = &response.Response{
			Status:     http.StatusOK,
			StatusText: http.StatusText(http.StatusOK),
			Header:     make(http.Header),
		}
	}
	envelope.Body = merged

	out := *base
	out.Response = envelope
	return &out
}

func isGraphQL(h handler.Handler) bool {
	return h != nil && h.Info().Kind == handler.KindGraphQL
}
