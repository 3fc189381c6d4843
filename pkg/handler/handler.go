package handler

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/getmockd/mockwire/internal/callframe"
	"github.com/getmockd/mockwire/internal/matching"
	"github.com/getmockd/mockwire/pkg/graphql"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/response"
)

// Handler is a declared mock rule.
//
// Parse and Predicate are called synchronously in declaration order; Run may
// be called concurrently with other handlers' Run.
type Handler interface {
	// Info describes the handler.
	Info() *Info

	// Parse extracts what the handler needs from req. A nil result means the
	// request is not of the kind the handler understands.
	Parse(req *request.Request) (any, error)

	// Predicate reports whether the handler is relevant for req.
	Predicate(req *request.Request, parsed any) bool

	// PublicRequest builds the request view passed to the resolver.
	PublicRequest(req *request.Request, parsed any) any

	// Run invokes the resolver. A nil response declines the request.
	Run(public any) (*response.Response, error)

	// Log writes diagnostics for a request this handler answered.
	Log(logger *slog.Logger, public any, res *response.Response, parsed any)

	// ShouldSkip reports whether a one-shot handler has been used.
	ShouldSkip() bool

	// MarkUsed marks a one-shot handler as used. It returns false when the
	// handler was already used.
	MarkUsed() bool

	// Reset clears the used flag.
	Reset()
}

// Kind identifies the handler variant.
type Kind string

const (
	KindRest    Kind = "rest"
	KindGraphQL Kind = "graphql"
)

// Info describes a handler.
type Info struct {
	ID   string
	Kind Kind

	// Header is a short human-readable summary, e.g. "GET /users/:id".
	Header string

	Mask matching.Mask

	// Method is set for REST handlers; empty matches any method.
	Method string

	// OperationType and OperationName are set for GraphQL handlers.
	// OperationName is a string or *regexp.Regexp, nil for any.
	OperationType graphql.OperationKind
	OperationName Selector

	// CallFrame is the source location that declared the handler.
	CallFrame string
}

// Selector selects GraphQL operations by name: a string for an exact match
// or a *regexp.Regexp.
type Selector any

type base struct {
	info Info
	used atomic.Bool
}

func (b *base) init(info Info) {
	info.ID = uuid.NewString()
	info.CallFrame = callframe.Get()
	b.info = info
}

func (b *base) Info() *Info {
	return &b.info
}

func (b *base) ShouldSkip() bool {
	return b.used.Load()
}

func (b *base) MarkUsed() bool {
	return b.used.CompareAndSwap(false, true)
}

func (b *base) Reset() {
	b.used.Store(false)
}

func mustMask(mask matching.Mask) {
	if err := matching.ValidateMask(mask); err != nil {
		panic(fmt.Sprintf("handler: %v", err))
	}
}

func mustSelector(s Selector) {
	switch s.(type) {
	case nil, string, *regexp.Regexp:
	default:
		panic(fmt.Sprintf("handler: unsupported operation selector %T", s))
	}
}

func selectorMatches(s Selector, name string) bool {
	switch v := s.(type) {
	case nil:
		return true
	case string:
		return v == name
	case *regexp.Regexp:
		return v.MatchString(name)
	default:
		return false
	}
}

func selectorString(s Selector) string {
	switch v := s.(type) {
	case nil:
		return "*"
	case string:
		return v
	case *regexp.Regexp:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
