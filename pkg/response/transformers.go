package response

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"reflect"
	"time"

	"github.com/beevik/etree"
)

// Realistic server response time bounds used by Delay without arguments.
const (
	MinRealisticDelay = 100 * time.Millisecond
	MaxRealisticDelay = 400 * time.Millisecond
)

// Set appends a header value.
func Set(name, value string) Transformer {
	return func(r *Response) error {
		r.Header.Add(name, value)
		return nil
	}
}

// SetHeaders appends every header in h.
func SetHeaders(h map[string]string) Transformer {
	return func(r *Response) error {
		for name, value := range h {
			r.Header.Add(name, value)
		}
		return nil
	}
}

// Status sets the status code. The status text defaults to the standard
// text for the code.
func Status(code int, text ...string) Transformer {
	return func(r *Response) error {
		if code < 100 || code > 999 {
			return fmt.Errorf("invalid status code %d", code)
		}
		r.Status = code
		r.StatusText = http.StatusText(code)
		if len(text) > 0 {
			r.StatusText = text[0]
		}
		return nil
	}
}

// Cookie adds a Set-Cookie header for name=value.
func Cookie(name, value string) Transformer {
	return SetCookie(&http.Cookie{Name: name, Value: value})
}

// SetCookie adds a Set-Cookie header for c.
func SetCookie(c *http.Cookie) Transformer {
	return func(r *Response) error {
		if err := c.Valid(); err != nil {
			return fmt.Errorf("invalid cookie: %w", err)
		}
		r.Header.Add("Set-Cookie", c.String())
		return nil
	}
}

// Body sets the raw body. Strings and byte slices are supported.
func Body[T string | []byte](body T) Transformer {
	return func(r *Response) error {
		r.Body = []byte(body)
		return nil
	}
}

// Text sets a plain text body.
func Text(body string) Transformer {
	return func(r *Response) error {
		r.Header.Set("Content-Type", "text/plain")
		r.Body = []byte(body)
		return nil
	}
}

// JSONOption configures the JSON transformer.
type JSONOption func(*jsonOptions)

type jsonOptions struct {
	merge bool
}

// Merge deep-merges an object payload into the current JSON object body
// instead of replacing it. Nested objects merge key by key and arrays are
// concatenated.
func Merge() JSONOption {
	return func(o *jsonOptions) {
		o.merge = true
	}
}

// JSON sets a JSON body.
func JSON(v any, opts ...JSONOption) Transformer {
	var o jsonOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(r *Response) error {
		r.Header.Set("Content-Type", "application/json")

		if !o.merge {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encoding JSON body: %w", err)
			}
			r.Body = data
			return nil
		}

		incoming, err := normalize(v)
		if err != nil {
			return err
		}
		var current any = map[string]any{}
		if len(r.Body) > 0 {
			var parsed any
			if err := json.Unmarshal(r.Body, &parsed); err == nil {
				current = parsed
			}
		}
		data, err := json.Marshal(mergeRight(current, incoming))
		if err != nil {
			return fmt.Errorf("encoding JSON body: %w", err)
		}
		r.Body = data
		return nil
	}
}

// XML sets an XML body. The value is a string, which must be well formed,
// or an *etree.Document.
func XML[T string | *etree.Document](body T) Transformer {
	return func(r *Response) error {
		var doc *etree.Document
		switch v := any(body).(type) {
		case string:
			doc = etree.NewDocument()
			if err := doc.ReadFromString(v); err != nil {
				return fmt.Errorf("invalid XML body: %w", err)
			}
			r.Header.Set("Content-Type", "text/xml")
			r.Body = []byte(v)
			return nil
		case *etree.Document:
			doc = v
		}
		if doc == nil {
			return fmt.Errorf("invalid XML body: nil document")
		}
		data, err := doc.WriteToBytes()
		if err != nil {
			return fmt.Errorf("encoding XML body: %w", err)
		}
		r.Header.Set("Content-Type", "text/xml")
		r.Body = data
		return nil
	}
}

// Data sets a GraphQL data payload. An object payload is merged into the
// current body as {"data": payload}; a slice payload replaces the whole body
// with one {"data": item} entry per element.
func Data(payload any) Transformer {
	items, isList := listItems(payload)
	if !isList {
		return JSON(map[string]any{"data": payload}, Merge())
	}
	wrapped := make([]any, 0, len(items))
	for _, item := range items {
		wrapped = append(wrapped, map[string]any{"data": item})
	}
	return JSON(wrapped)
}

// Errors merges a GraphQL errors list into the current body as {"errors": errs}.
func Errors(errs any) Transformer {
	if errs == nil {
		return func(*Response) error { return nil }
	}
	return JSON(map[string]any{"errors": errs}, Merge())
}

// Delay defers the response by d. Without an argument it uses a random
// realistic server response time.
func Delay(d ...time.Duration) Transformer {
	return func(r *Response) error {
		if len(d) > 0 {
			if d[0] < 0 {
				return fmt.Errorf("invalid delay %s", d[0])
			}
			r.Delay = d[0]
			return nil
		}
		r.Delay = realisticDelay()
		return nil
	}
}

// Fetch marks the response as a passthrough: the caller performs the original
// request instead of using a mocked response. It cannot be combined with any
// other transformer.
func Fetch() Transformer {
	return func(r *Response) error {
		r.Passthrough = true
		return nil
	}
}

func realisticDelay() time.Duration {
	span := int64(MaxRealisticDelay - MinRealisticDelay)
	return MinRealisticDelay + time.Duration(rand.Int64N(span+1))
}

// normalize converts v to its generic JSON representation.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON body: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding JSON body: %w", err)
	}
	return out, nil
}

// listItems returns the elements of slice and array payloads. Byte slices and
// json.RawMessage values are not lists.
func listItems(payload any) ([]any, bool) {
	if payload == nil {
		return nil, false
	}
	if _, ok := payload.(json.RawMessage); ok {
		return nil, false
	}
	rv := reflect.ValueOf(payload)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	default:
		return nil, false
	}
}

// mergeRight merges right into left. Objects merge recursively, arrays are
// concatenated and any other right value wins.
func mergeRight(left, right any) any {
	switch r := right.(type) {
	case map[string]any:
		l, ok := left.(map[string]any)
		if !ok {
			return r
		}
		out := make(map[string]any, len(l)+len(r))
		for k, v := range l {
			out[k] = v
		}
		for k, v := range r {
			if existing, ok := out[k]; ok {
				out[k] = mergeRight(existing, v)
				continue
			}
			out[k] = v
		}
		return out
	case []any:
		l, ok := left.([]any)
		if !ok {
			return r
		}
		out := make([]any, 0, len(l)+len(r))
		out = append(out, l...)
		return append(out, r...)
	default:
		return right
	}
}
