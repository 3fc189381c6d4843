package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/getmockd/mockwire/pkg/request"
)

// DecodeRequest extracts the GraphQL payloads carried by req. batch reports
// whether the body was an array. Entries without a query are dropped; a
// request with no query at all returns nil.
func DecodeRequest(req *request.Request) (payloads []Payload, batch bool) {
	switch req.Method {
	case http.MethodGet:
		return decodeGet(req), false
	case http.MethodPost:
		return decodePost(req)
	default:
		return nil, false
	}
}

func decodeGet(req *request.Request) []Payload {
	params := req.URL.Query()
	query := params.Get("query")
	if query == "" {
		return nil
	}

	p := Payload{
		Query:         query,
		OperationName: params.Get("operationName"),
	}
	// Malformed variables are ignored rather than failing the request.
	if raw := params.Get("variables"); raw != "" {
		var vars map[string]any
		if err := json.Unmarshal([]byte(raw), &vars); err == nil {
			p.Variables = vars
		}
	}
	return []Payload{p}
}

func decodePost(req *request.Request) ([]Payload, bool) {
	body, ok := req.JSON()
	if !ok {
		return nil, false
	}

	switch v := body.(type) {
	case map[string]any:
		p, ok := payloadFrom(v)
		if !ok {
			return nil, false
		}
		return []Payload{p}, false
	case []any:
		var out []Payload
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if p, ok := payloadFrom(obj); ok {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, true
		}
		return out, true
	default:
		return nil, false
	}
}

func payloadFrom(obj map[string]any) (Payload, bool) {
	query, _ := obj["query"].(string)
	if query == "" {
		return Payload{}, false
	}
	p := Payload{Query: query}
	p.OperationName, _ = obj["operationName"].(string)
	p.Variables, _ = obj["variables"].(map[string]any)
	return p, true
}
