// Package engine resolves an intercepted request against an ordered list of
// handlers.
//
// Resolution runs in two phases. Every handler that is not spent parses the
// request and evaluates its predicate, synchronously and in declaration
// order. The resolvers of all relevant handlers then run concurrently, and
// their results are collected back in declaration order and reduced to a
// single Payload:
//
//	payload, err := engine.Resolve(ctx, req, handlers, engine.DefaultReducer)
//	switch {
//	case err != nil:
//	    // a parse or resolver error; nothing was mocked
//	case payload.Bypassed():
//	    // no handler wanted the request; perform it for real
//	case payload.Response.Passthrough:
//	    // the handler asked for the real request
//	}
//
// A resolver that returns a nil response declines the request; the default
// reducer then picks the next relevant handler with a response.
package engine
