package graphql

// Payload is a single GraphQL operation as sent by a client.
type Payload struct {
	// Query is the GraphQL document.
	Query string `json:"query"`
	// OperationName selects an operation in multi-operation documents.
	OperationName string `json:"operationName,omitempty"`
	// Variables are the variable values for the operation.
	Variables map[string]any `json:"variables,omitempty"`
}

// Error is a GraphQL error in the response format.
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Location is a position in a GraphQL document (1-indexed).
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Response is a GraphQL response body.
type Response struct {
	Data       any            `json:"data,omitempty"`
	Errors     []Error        `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}
