package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/response"
)

// Payload is the outcome of resolving a request with one handler, or the
// reduced outcome of a whole dispatch.
type Payload struct {
	// Handler is nil when no handler was relevant.
	Handler handler.Handler

	// Parsed is the handler's parse result.
	Parsed any

	// Request is the public request view the resolver received.
	Request any

	// Response is nil when the handler declined the request.
	Response *response.Response
}

// Bypassed reports whether no handler produced a response.
func (p *Payload) Bypassed() bool {
	return p == nil || p.Response == nil
}

// Passthrough reports whether the response asks for the real request.
func (p *Payload) Passthrough() bool {
	return p != nil && p.Response != nil && p.Response.Passthrough
}

type candidate struct {
	handler handler.Handler
	parsed  any
}

// Resolve dispatches req to handlers and reduces the results with reducer
// (DefaultReducer when nil). When no handler is relevant it returns an empty
// Payload. A parse error or a resolver error fails the whole dispatch.
func Resolve(ctx context.Context, req *request.Request, handlers []handler.Handler, reducer Reducer) (*Payload, error) {
	if reducer == nil {
		reducer = DefaultReducer
	}

	relevant, err := relevantHandlers(req, handlers)
	if err != nil {
		return nil, err
	}
	if len(relevant) == 0 {
		return &Payload{}, nil
	}

	req = req.WithContext(ctx)
	payloads := make([]*Payload, len(relevant))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range relevant {
		g.Go(func() error {
			p, err := run(gctx, req, c)
			if err != nil {
				return err
			}
			payloads[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if result := reducer.Reduce(req, payloads); result != nil {
		return result, nil
	}
	return &Payload{}, nil
}

// relevantHandlers parses req with every handler that is not spent and keeps
// those whose predicate holds, in declaration order.
func relevantHandlers(req *request.Request, handlers []handler.Handler) ([]candidate, error) {
	var relevant []candidate
	for _, h := range handlers {
		if h == nil || h.ShouldSkip() {
			continue
		}
		parsed, err := h.Parse(req)
		if err != nil {
			return nil, fmt.Errorf("parsing request for %s: %w", h.Info().Header, err)
		}
		if h.Predicate(req, parsed) {
			relevant = append(relevant, candidate{handler: h, parsed: parsed})
		}
	}
	return relevant, nil
}

func run(ctx context.Context, req *request.Request, c candidate) (p *Payload, err error) {
	h := c.handler
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolver for %s panicked: %v", h.Info().Header, r)
		}
	}()

	public := h.PublicRequest(req, c.parsed)
	res, err := h.Run(public)
	if err != nil {
		return nil, fmt.Errorf("resolver for %s: %w", h.Info().Header, err)
	}

	if res != nil && res.Delay > 0 {
		if err := wait(ctx, res.Delay); err != nil {
			return nil, err
		}
	}

	// Of concurrent dispatches, only the one that flips the flag keeps the
	// one-shot response.
	if res != nil && res.Once && !h.MarkUsed() {
		res = nil
	}

	return &Payload{
		Handler:  h,
		Parsed:   c.parsed,
		Request:  public,
		Response: res,
	}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
