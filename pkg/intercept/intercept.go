// Package intercept manages the active handler list and connects the
// resolution engine to net/http.
//
// An Interceptor can be installed as an http.RoundTripper, so a client's
// requests are answered by mocks, or served as an http.Handler:
//
//	mocks := intercept.New([]handler.Handler{
//	    handler.Get("/user", getUser),
//	}, intercept.WithOnUnhandled(intercept.OnUnhandledWarn))
//
//	client := &http.Client{Transport: mocks.Transport(nil)}
//
// Requests no handler answers are performed for real by the transport
// passed to Transport.
package intercept

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/getmockd/mockwire/pkg/engine"
	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/logging"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/requestlog"
)

// ErrUnhandledRequest is returned under OnUnhandledError when no handler is
// relevant for a request.
var ErrUnhandledRequest = errors.New("unhandled request")

// UnhandledPolicy decides what happens to requests no handler is relevant for.
type UnhandledPolicy string

const (
	// OnUnhandledBypass performs the request silently.
	OnUnhandledBypass UnhandledPolicy = "bypass"
	// OnUnhandledWarn logs a warning and performs the request.
	OnUnhandledWarn UnhandledPolicy = "warn"
	// OnUnhandledError fails the request with ErrUnhandledRequest.
	OnUnhandledError UnhandledPolicy = "error"
)

// ParseUnhandledPolicy parses a policy name.
func ParseUnhandledPolicy(s string) (UnhandledPolicy, error) {
	switch p := UnhandledPolicy(s); p {
	case OnUnhandledBypass, OnUnhandledWarn, OnUnhandledError:
		return p, nil
	case "":
		return OnUnhandledBypass, nil
	default:
		return "", fmt.Errorf("unknown unhandled request policy %q (want bypass, warn or error)", s)
	}
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger for handler diagnostics and warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		i.log = logging.OrNop(logger)
	}
}

// WithReducer sets the reducer. The default is engine.DefaultReducer; use
// engine.GraphQLBatchReducer to merge batched GraphQL responses.
func WithReducer(r engine.Reducer) Option {
	return func(i *Interceptor) {
		i.reducer = r
	}
}

// WithRequestLog sets the store resolved requests are recorded in.
func WithRequestLog(store requestlog.Store) Option {
	return func(i *Interceptor) {
		i.requests = store
	}
}

// WithOnUnhandled sets the unhandled request policy.
func WithOnUnhandled(p UnhandledPolicy) Option {
	return func(i *Interceptor) {
		i.onUnhandled = p
	}
}

// Interceptor resolves requests against a mutable list of handlers.
type Interceptor struct {
	mu       sync.RWMutex
	initial  []handler.Handler
	handlers []handler.Handler
	reducer  engine.Reducer

	log         *slog.Logger
	requests    requestlog.Store
	onUnhandled UnhandledPolicy
}

// New creates an Interceptor with the initial handlers, in priority order.
func New(handlers []handler.Handler, opts ...Option) *Interceptor {
	i := &Interceptor{
		initial:     slices.Clone(handlers),
		handlers:    slices.Clone(handlers),
		reducer:     engine.DefaultReducer,
		log:         logging.Nop(),
		onUnhandled: OnUnhandledBypass,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.requests == nil {
		i.requests = requestlog.NewMemoryStore(0)
	}
	return i
}

// Use prepends runtime handlers so they take priority over existing ones.
func (i *Interceptor) Use(handlers ...handler.Handler) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.handlers = append(slices.Clone(handlers), i.handlers...)
}

// ResetHandlers drops runtime handlers and restores the initial list, or
// replaces the list with next when given.
func (i *Interceptor) ResetHandlers(next ...handler.Handler) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(next) > 0 {
		i.handlers = slices.Clone(next)
		return
	}
	i.handlers = slices.Clone(i.initial)
}

// RestoreHandlers makes used one-shot handlers match again.
func (i *Interceptor) RestoreHandlers() {
	for _, h := range i.Handlers() {
		h.Reset()
	}
}

// Handlers returns a copy of the current handler list.
func (i *Interceptor) Handlers() []handler.Handler {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Clone(i.handlers)
}

// SetReducer replaces the reducer.
func (i *Interceptor) SetReducer(r engine.Reducer) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.reducer = r
}

// Requests returns the request log.
func (i *Interceptor) Requests() requestlog.Store {
	return i.requests
}

// PrintHandlers writes one line per handler with its declaration site.
func (i *Interceptor) PrintHandlers(w io.Writer) error {
	for _, h := range i.Handlers() {
		info := h.Info()
		line := fmt.Sprintf("[%s] %s", info.Kind, info.Header)
		if h.ShouldSkip() {
			line += " (used)"
		}
		if info.CallFrame != "" {
			line += "\n  Declaration: " + info.CallFrame
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Resolve resolves req against the current handlers. The returned payload
// is bypassed when no handler produced a response.
func (i *Interceptor) Resolve(ctx context.Context, req *request.Request) (*engine.Payload, error) {
	i.mu.RLock()
	handlers := slices.Clone(i.handlers)
	reducer := i.reducer
	i.mu.RUnlock()

	start := time.Now()
	payload, err := engine.Resolve(ctx, req, handlers, reducer)
	entry := newEntry(req, time.Since(start))

	if err != nil {
		entry.Outcome = requestlog.OutcomeError
		entry.Error = err.Error()
		i.requests.Log(entry)
		i.log.Error("failed to resolve request", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, err
	}

	describe(entry, payload)
	i.requests.Log(entry)

	if payload.Handler == nil {
		return payload, i.unhandled(req)
	}
	if payload.Response != nil {
		payload.Handler.Log(i.log, payload.Request, payload.Response, payload.Parsed)
	}
	return payload, nil
}

func (i *Interceptor) unhandled(req *request.Request) error {
	switch i.onUnhandled {
	case OnUnhandledWarn:
		i.log.Warn("captured a request without a matching handler", "method", req.Method, "url", req.URL.String())
	case OnUnhandledError:
		i.log.Error("captured a request without a matching handler", "method", req.Method, "url", req.URL.String())
		return fmt.Errorf("%w: %s", ErrUnhandledRequest, req)
	}
	return nil
}
