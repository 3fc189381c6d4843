package graphql

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// OperationKind is the kind of operation a handler expects.
type OperationKind string

const (
	KindQuery        OperationKind = "query"
	KindMutation     OperationKind = "mutation"
	KindSubscription OperationKind = "subscription"
	// KindAll accepts any operation kind.
	KindAll OperationKind = "all"
)

// Document is the operation located in a GraphQL document.
type Document struct {
	// OperationType is empty when the document declares no operation of the
	// expected kind.
	OperationType OperationKind
	// OperationName is empty for anonymous operations.
	OperationName string
}

// ParsedOperation is a decoded payload together with its located operation.
type ParsedOperation struct {
	OperationType OperationKind  `json:"operationType,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// SyntaxError reports a GraphQL document that could not be parsed.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
	Query   string

	err error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("graphql syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return "graphql syntax error: " + e.Message
}

func (e *SyntaxError) Unwrap() error {
	return e.err
}

// GraphQLError converts the syntax error into the GraphQL response error format.
func (e *SyntaxError) GraphQLError() Error {
	out := Error{Message: e.Message}
	if e.Line > 0 {
		out.Locations = []Location{{Line: e.Line, Column: e.Column}}
	}
	return out
}

// ParseDocument parses query and returns the first operation of the expected
// kind, or of any kind for KindAll.
func ParseDocument(query string, expected OperationKind) (*Document, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return nil, newSyntaxError(query, err)
	}

	for _, op := range doc.Operations {
		kind := OperationKind(op.Operation)
		if expected != KindAll && kind != expected {
			continue
		}
		return &Document{OperationType: kind, OperationName: op.Name}, nil
	}
	return &Document{}, nil
}

// ParseOperations parses every payload for the expected kind, preserving order.
func ParseOperations(payloads []Payload, expected OperationKind) ([]ParsedOperation, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	out := make([]ParsedOperation, 0, len(payloads))
	for _, p := range payloads {
		doc, err := ParseDocument(p.Query, expected)
		if err != nil {
			return nil, err
		}
		out = append(out, ParsedOperation{
			OperationType: doc.OperationType,
			OperationName: doc.OperationName,
			Query:         p.Query,
			Variables:     p.Variables,
		})
	}
	return out, nil
}

func newSyntaxError(query string, err error) *SyntaxError {
	se := &SyntaxError{Message: err.Error(), Query: query, err: err}
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		se.Message = gqlErr.Message
		if len(gqlErr.Locations) > 0 {
			se.Line = gqlErr.Locations[0].Line
			se.Column = gqlErr.Locations[0].Column
		}
	}
	return se
}
