package template

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)
	callRe        = regexp.MustCompile(`^([\w.]+)\((.*)\)$`)
)

// Engine expands templates. It is safe for concurrent use; named
// sequences are shared by every template the engine expands.
type Engine struct {
	mu        sync.Mutex
	sequences map[string]int64
}

// New creates an Engine with no sequences started.
func New() *Engine {
	return &Engine{sequences: make(map[string]int64)}
}

// Contains reports whether s holds at least one placeholder.
func Contains(s string) bool {
	return placeholderRe.MatchString(s)
}

// ContainsAny reports whether any string inside v, a decoded JSON or YAML
// value, holds a placeholder.
func ContainsAny(v any) bool {
	switch v := v.(type) {
	case string:
		return Contains(v)
	case map[string]any:
		for _, item := range v {
			if ContainsAny(item) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if ContainsAny(item) {
				return true
			}
		}
	}
	return false
}

// Expand replaces every placeholder in s.
func (e *Engine) Expand(s string, ctx *Context) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		sub := placeholderRe.FindStringSubmatch(match)
		return e.eval(sub[1], ctx)
	})
}

// ExpandValue returns a copy of v with every string expanded. Maps and
// slices are copied; other values are returned as is.
func (e *Engine) ExpandValue(v any, ctx *Context) any {
	switch v := v.(type) {
	case string:
		return e.Expand(v, ctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = e.ExpandValue(item, ctx)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = e.ExpandValue(item, ctx)
		}
		return out
	default:
		return v
	}
}

// ExpandMap expands the values of m into a new map.
func (e *Engine) ExpandMap(m map[string]string, ctx *Context) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = e.Expand(v, ctx)
	}
	return out
}

// ResetSequences restarts every named sequence.
func (e *Engine) ResetSequences() {
	e.mu.Lock()
	clear(e.sequences)
	e.mu.Unlock()
}

func (e *Engine) next(name string, start int64) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.sequences[name]
	if !ok {
		v = start
	}
	e.sequences[name] = v + 1
	return v
}

func (e *Engine) eval(expr string, ctx *Context) string {
	expr = strings.TrimSpace(expr)
	switch expr {
	case "now", "timestamp.iso":
		return time.Now().UTC().Format(time.RFC3339)
	case "timestamp", "timestamp.unix":
		return strconv.FormatInt(time.Now().Unix(), 10)
	case "timestamp.unix_ms":
		return strconv.FormatInt(time.Now().UnixMilli(), 10)
	case "uuid":
		return uuid.NewString()
	case "uuid.short":
		return uuid.NewString()[:8]
	case "random":
		return randomHex(8)
	case "random.int":
		return randomInt(0, 100)
	case "random.float":
		return randomFloat(0, 1, 2)
	case "random.string":
		return randomString(10)
	}

	if m := callRe.FindStringSubmatch(expr); m != nil {
		return e.call(m[1], splitArgs(m[2]), ctx)
	}
	if literal, ok := unquote(expr); ok {
		return literal
	}
	return format(ctx.lookup(expr))
}

func (e *Engine) call(name string, args []string, ctx *Context) string {
	arg := func(i int) string {
		if i >= len(args) {
			return ""
		}
		if literal, ok := unquote(args[i]); ok {
			return literal
		}
		return e.eval(args[i], ctx)
	}
	number := func(i int, fallback float64) float64 {
		if i >= len(args) {
			return fallback
		}
		n, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fallback
		}
		return n
	}

	switch name {
	case "upper":
		return strings.ToUpper(arg(0))
	case "lower":
		return strings.ToLower(arg(0))
	case "default":
		if v := arg(0); v != "" {
			return v
		}
		return arg(1)
	case "random.int":
		return randomInt(int64(number(0, 0)), int64(number(1, 100)))
	case "random.float":
		return randomFloat(number(0, 0), number(1, 1), int(number(2, 2)))
	case "random.string":
		return randomString(int(number(0, 10)))
	case "sequence":
		seq := arg(0)
		if seq == "" {
			return ""
		}
		return strconv.FormatInt(e.next(seq, int64(number(1, 1))), 10)
	}
	return ""
}

// splitArgs splits a call's argument list on commas outside quotes.
func splitArgs(s string) []string {
	var (
		args  []string
		quote rune
		start int
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ',':
			args = append(args, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" || len(args) > 0 {
		args = append(args, rest)
	}
	return args
}

func unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return "", false
	}
	if (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}
