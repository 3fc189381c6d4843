package intercept

import (
	"errors"
	"net/http"

	"github.com/getmockd/mockwire/pkg/httputil"
	"github.com/getmockd/mockwire/pkg/request"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Transport returns a RoundTripper answering requests with mocks. Bypassed
// and passthrough requests are sent with next, http.DefaultTransport when nil,
// as a clone of the original carrying its complete body.
func (i *Interceptor) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		req, body, err := request.Capture(r)
		if err != nil {
			return nil, err
		}
		payload, err := i.Resolve(r.Context(), req)
		if err == nil && (payload.Bypassed() || payload.Passthrough()) {
			out := r
			if body != nil {
				out = r.Clone(r.Context())
				out.Body = body
			}
			return next.RoundTrip(out)
		}
		if body != nil {
			_ = body.Close()
		}
		if err != nil {
			return nil, err
		}
		return payload.Response.ToHTTP(r), nil
	})
}

// ServeHTTP answers requests with mocks. Requests without a mock get a 404
// JSON error; passthrough responses get a 502 since there is no upstream.
func (i *Interceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := request.FromHTTP(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeBadRequest, err.Error())
		return
	}

	payload, err := i.Resolve(r.Context(), req)
	switch {
	case errors.Is(err, ErrUnhandledRequest):
		httputil.WriteUnhandled(w, r)
	case err != nil:
		httputil.WriteResolveError(w, err)
	case payload.Passthrough():
		httputil.WriteError(w, http.StatusBadGateway, httputil.CodePassthrough, "handler requested the real response but no upstream is configured")
	case payload.Bypassed():
		httputil.WriteUnhandled(w, r)
	default:
		if err := payload.Response.Write(w); err != nil {
			i.log.Warn("failed to write mocked response", "url", req.URL.String(), "error", err)
		}
	}
}
