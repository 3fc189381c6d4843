// Package request defines the captured request passed through the resolution pipeline.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/jp"
)

// MaxBodySize is the maximum number of body bytes captured from a request (10MB).
const MaxBodySize = 10 << 20

// BodyKind describes how a request body was captured.
type BodyKind int

const (
	// BodyAbsent means the request carried no body.
	BodyAbsent BodyKind = iota
	// BodyJSON means the body decoded as JSON.
	BodyJSON
	// BodyRaw means the body is kept as opaque bytes.
	BodyRaw
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyRaw:
		return "raw"
	default:
		return "absent"
	}
}

var (
	// ErrNoJSONBody is returned when a JSON operation is attempted on a non-JSON body.
	ErrNoJSONBody = errors.New("request body is not JSON")
	// ErrInvalidURL is returned when a request URL cannot be parsed.
	ErrInvalidURL = errors.New("invalid request URL")
)

// Request is an intercepted request. It is immutable once captured:
// handlers derive their own views of it and never modify it.
type Request struct {
	ID     string
	Method string
	URL    *url.URL
	Header http.Header

	kind BodyKind
	raw  []byte
	json any

	ctx context.Context
}

// New captures a request. The header and body are copied.
func New(method, rawURL string, header http.Header, body []byte) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidURL, rawURL, err)
	}

	if method == "" {
		method = http.MethodGet
	}

	r := &Request{
		ID:     uuid.NewString(),
		Method: strings.ToUpper(method),
		URL:    u,
		Header: header.Clone(),
	}
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.setBody(body)
	return r, nil
}

// MustNew is like New but panics on an invalid URL. Intended for tests and
// static setup code.
func MustNew(method, rawURL string, header http.Header, body []byte) *Request {
	r, err := New(method, rawURL, header, body)
	if err != nil {
		panic(err)
	}
	return r
}

// NewJSON captures a request whose body is v encoded as JSON.
func NewJSON(method, rawURL string, v any) (*Request, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	header := http.Header{"Content-Type": []string{"application/json"}}
	return New(method, rawURL, header, data)
}

// FromHTTP captures a net/http request and closes its body. At most
// MaxBodySize body bytes are captured.
func FromHTTP(r *http.Request) (*Request, error) {
	req, body, err := Capture(r)
	if body != nil {
		_ = body.Close()
	}
	return req, err
}

// Capture captures r for matching without modifying it. At most
// MaxBodySize body bytes are captured. The returned body, nil when r has
// none, replays the complete original body and closes r.Body; callers that
// forward r must send it in place of r.Body.
func Capture(r *http.Request) (*Request, io.ReadCloser, error) {
	var (
		head []byte
		body io.ReadCloser
	)
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize))
		if err != nil {
			_ = r.Body.Close()
			return nil, nil, fmt.Errorf("reading request body: %w", err)
		}
		head = data
		body = replayBody{Reader: io.MultiReader(bytes.NewReader(data), r.Body), Closer: r.Body}
	}

	u := *r.URL
	if u.Host == "" && r.Host != "" {
		u.Host = r.Host
		if u.Scheme == "" {
			u.Scheme = "http"
			if r.TLS != nil {
				u.Scheme = "https"
			}
		}
	}

	req, err := New(r.Method, u.String(), r.Header, head)
	if err != nil {
		if body != nil {
			_ = body.Close()
		}
		return nil, nil, err
	}
	req.ctx = r.Context()
	return req, body, nil
}

// replayBody reads the captured prefix followed by the unread rest.
type replayBody struct {
	io.Reader
	io.Closer
}

func (r *Request) setBody(body []byte) {
	if len(body) == 0 {
		r.kind = BodyAbsent
		return
	}
	r.raw = append([]byte(nil), body...)
	r.kind = BodyRaw

	if !isJSONContentType(r.Header.Get("Content-Type")) && !looksLikeJSON(r.raw) {
		return
	}
	var v any
	if err := json.Unmarshal(r.raw, &v); err == nil {
		r.json = v
		r.kind = BodyJSON
	}
}

// Context returns the request's context. It is never nil.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of r with its context changed to ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("request: nil context")
	}
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// BodyKind reports how the body was captured.
func (r *Request) BodyKind() BodyKind {
	return r.kind
}

// Body returns a copy of the raw body bytes.
func (r *Request) Body() []byte {
	if r.raw == nil {
		return nil
	}
	return append([]byte(nil), r.raw...)
}

// Text returns the body as a string.
func (r *Request) Text() string {
	return string(r.raw)
}

// JSON returns the decoded JSON body and whether the body was JSON.
func (r *Request) JSON() (any, bool) {
	return r.json, r.kind == BodyJSON
}

// IsJSONArray reports whether the body is a JSON array.
func (r *Request) IsJSONArray() bool {
	_, ok := r.json.([]any)
	return ok
}

// DecodeJSON decodes the JSON body into v.
func (r *Request) DecodeJSON(v any) error {
	if r.kind != BodyJSON {
		return ErrNoJSONBody
	}
	return json.Unmarshal(r.raw, v)
}

// Query evaluates a JSONPath expression (e.g. "$.user.id") against the JSON
// body and returns every matching value.
func (r *Request) Query(path string) ([]any, error) {
	if r.kind != BodyJSON {
		return nil, ErrNoJSONBody
	}
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}
	return expr.Get(r.json), nil
}

// QueryFirst returns the first value matched by a JSONPath expression, or nil.
func (r *Request) QueryFirst(path string) any {
	values, err := r.Query(path)
	if err != nil || len(values) == 0 {
		return nil
	}
	return values[0]
}

// String returns "METHOD URL".
func (r *Request) String() string {
	return r.Method + " " + r.URL.String()
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	switch trimmed[0] {
	case '{', '[':
		return true
	default:
		return false
	}
}
