// Package response builds mocked responses from ordered transformer functions.
//
// A resolver composes a response by passing transformers to a Composer:
//
//	return res(
//	    response.Status(http.StatusCreated),
//	    response.Set("X-Request-Id", "abc"),
//	    response.JSON(map[string]string{"id": "abc"}),
//	)
//
// Every composition starts from the default draft (200 OK, no headers, no
// body) and applies the transformers in the order given.
package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrPassthroughExclusive is returned when Fetch is combined with other transformers.
var ErrPassthroughExclusive = errors.New("passthrough cannot be combined with other transformers")

// Response is a mocked response draft.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte

	// Delay defers the moment the response becomes available.
	Delay time.Duration

	// Once marks the handler that produced this response as used.
	Once bool

	// Passthrough asks the caller to perform the original request.
	Passthrough bool
}

// Transformer mutates a response draft.
type Transformer func(*Response) error

// Default returns the initial draft every composition starts from.
func Default() *Response {
	return &Response{
		Status:     http.StatusOK,
		StatusText: http.StatusText(http.StatusOK),
		Header:     make(http.Header),
	}
}

// Compose returns a transformer applying ts in order.
func Compose(ts ...Transformer) Transformer {
	return func(r *Response) error {
		for _, t := range ts {
			if t == nil {
				continue
			}
			if err := t(r); err != nil {
				return err
			}
		}
		return nil
	}
}

// Composer builds a response from transformers. Resolvers receive one as
// their "res" argument.
type Composer func(ts ...Transformer) (*Response, error)

// Respond is the default Composer.
var Respond Composer = compose(false)

// Once composes a response that is served a single time; afterwards the
// handler that returned it no longer matches.
func (c Composer) Once(ts ...Transformer) (*Response, error) {
	r, err := c(ts...)
	if err != nil {
		return nil, err
	}
	r.Once = true
	return r, nil
}

func compose(once bool) Composer {
	return func(ts ...Transformer) (*Response, error) {
		r := Default()
		r.Once = once
		if err := Compose(ts...)(r); err != nil {
			return nil, err
		}
		if r.Passthrough && countNonNil(ts) > 1 {
			return nil, ErrPassthroughExclusive
		}
		finalize(r)
		return r, nil
	}
}

func countNonNil(ts []Transformer) int {
	n := 0
	for _, t := range ts {
		if t != nil {
			n++
		}
	}
	return n
}

// finalize normalizes headers and status text once all transformers ran.
func finalize(r *Response) {
	header := make(http.Header, len(r.Header))
	for name, values := range r.Header {
		key := http.CanonicalHeaderKey(name)
		header[key] = append(header[key], values...)
	}
	r.Header = header
	if r.StatusText == "" {
		r.StatusText = http.StatusText(r.Status)
	}
}

// Clone returns a deep copy of r.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	c.Header = r.Header.Clone()
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}

// DecodeJSON decodes the body into v.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return errors.New("response has no body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ToHTTP converts the draft into an *http.Response for req.
func (r *Response) ToHTTP(req *http.Request) *http.Response {
	body := r.Body
	resp := &http.Response{
		Status:        fmt.Sprintf("%d %s", r.Status, r.StatusText),
		StatusCode:    r.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        r.Header.Clone(),
		ContentLength: int64(len(body)),
		Request:       req,
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp
}

// Write writes the draft to an http.ResponseWriter.
func (r *Response) Write(w http.ResponseWriter) error {
	for name, values := range r.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(r.Status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
