package intercept

import (
	"time"

	"github.com/getmockd/mockwire/pkg/engine"
	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/request"
	"github.com/getmockd/mockwire/pkg/requestlog"
)

func newEntry(req *request.Request, elapsed time.Duration) *requestlog.Entry {
	return &requestlog.Entry{
		RequestID:   req.ID,
		Kind:        requestlog.KindREST,
		Method:      req.Method,
		URL:         req.URL.String(),
		Path:        req.URL.Path,
		QueryString: req.URL.RawQuery,
		Headers:     req.Header.Clone(),
		Body:        requestlog.Truncate(req.Text()),
		BodySize:    len(req.Body()),
		DurationMs:  int(elapsed.Milliseconds()),
	}
}

// describe fills the outcome and handler details of entry from payload.
func describe(entry *requestlog.Entry, payload *engine.Payload) {
	switch {
	case payload.Passthrough():
		entry.Outcome = requestlog.OutcomePassthrough
	case payload.Bypassed():
		entry.Outcome = requestlog.OutcomeBypass
	default:
		entry.Outcome = requestlog.OutcomeMocked
		entry.ResponseStatus = payload.Response.Status
		entry.ResponseBody = requestlog.Truncate(string(payload.Response.Body))
	}

	if payload.Handler == nil {
		return
	}
	info := payload.Handler.Info()
	entry.HandlerID = info.ID
	entry.Handler = info.Header

	parsed, ok := payload.Parsed.(*handler.GraphQLParsed)
	if info.Kind != handler.KindGraphQL || !ok || parsed == nil {
		return
	}
	entry.Kind = requestlog.KindGraphQL
	meta := &requestlog.GraphQLMeta{Batch: parsed.Batch}
	for _, op := range parsed.Operations {
		meta.Operations = append(meta.Operations, requestlog.GraphQLOperation{
			OperationType: string(op.OperationType),
			OperationName: op.OperationName,
		})
	}
	entry.GraphQL = meta
}
