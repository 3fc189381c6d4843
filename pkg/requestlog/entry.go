package requestlog

import "time"

// Request kinds.
const (
	KindREST    = "rest"
	KindGraphQL = "graphql"
)

// Resolution outcomes.
const (
	// OutcomeMocked means a handler produced the response.
	OutcomeMocked = "mocked"
	// OutcomePassthrough means a handler asked for the real request.
	OutcomePassthrough = "passthrough"
	// OutcomeBypass means no handler produced a response.
	OutcomeBypass = "bypass"
	// OutcomeError means resolution failed.
	OutcomeError = "error"
)

// MaxBodySize is the number of body bytes kept on an entry.
const MaxBodySize = 10 * 1024

// Entry captures a resolved request.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	// RequestID is the ID of the intercepted request.
	RequestID string `json:"requestId,omitempty"`

	// Kind is "graphql" for requests answered by a GraphQL handler, else "rest".
	Kind string `json:"kind"`

	Method      string              `json:"method"`
	URL         string              `json:"url"`
	Path        string              `json:"path"`
	QueryString string              `json:"queryString,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`

	// Body is the request body, truncated to MaxBodySize.
	Body     string `json:"body,omitempty"`
	BodySize int    `json:"bodySize"`

	Outcome string `json:"outcome"`

	// HandlerID and Handler identify the handler that answered, if any.
	HandlerID string `json:"handlerId,omitempty"`
	Handler   string `json:"handler,omitempty"`

	ResponseStatus int    `json:"responseStatus,omitempty"`
	ResponseBody   string `json:"responseBody,omitempty"`

	// DurationMs is the resolution time in milliseconds.
	DurationMs int `json:"durationMs"`

	Error string `json:"error,omitempty"`

	GraphQL *GraphQLMeta `json:"graphql,omitempty"`
}

// GraphQLMeta describes the GraphQL operations of an entry.
type GraphQLMeta struct {
	Batch      bool               `json:"batch,omitempty"`
	Operations []GraphQLOperation `json:"operations"`
}

// GraphQLOperation is a single operation of a GraphQL entry.
type GraphQLOperation struct {
	OperationType string `json:"operationType,omitempty"`
	OperationName string `json:"operationName,omitempty"`
}

// Truncate shortens s to MaxBodySize bytes.
func Truncate(s string) string {
	if len(s) <= MaxBodySize {
		return s
	}
	return s[:MaxBodySize]
}
