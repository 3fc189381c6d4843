package matching

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

type jsonPathCondition struct {
	path     string
	expr     jp.Expr
	expected any
}

func compileJSONPath(conditions map[string]any) ([]jsonPathCondition, error) {
	compiled := make([]jsonPathCondition, 0, len(conditions))
	for path, expected := range conditions {
		x, err := jp.ParseString(path)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
		}
		compiled = append(compiled, jsonPathCondition{path: path, expr: x, expected: expected})
	}
	return compiled, nil
}

// matchJSONPath reports whether every condition holds for the JSON body.
// A body that is not JSON matches no condition.
func matchJSONPath(conditions []jsonPathCondition, body []byte) bool {
	if len(conditions) == 0 {
		return true
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return false
	}
	for _, c := range conditions {
		if !c.match(data) {
			return false
		}
	}
	return true
}

// match compares the values at the path with the expected value. An
// expected value of {exists: bool} checks presence only. Wildcard paths
// match when any selected value is equal.
func (c jsonPathCondition) match(data any) bool {
	results := c.expr.Get(data)
	if want, ok := existence(c.expected); ok {
		return want == (len(results) > 0)
	}
	for _, v := range results {
		if jsonEqual(v, c.expected) {
			return true
		}
	}
	return false
}

func existence(expected any) (want, ok bool) {
	m, isMap := expected.(map[string]any)
	if !isMap || len(m) != 1 {
		return false, false
	}
	v, has := m["exists"]
	if !has {
		return false, false
	}
	b, _ := v.(bool)
	return b, true
}

// jsonEqual compares a decoded JSON value with a configured one. Numbers
// compare by value regardless of their Go type.
func jsonEqual(actual, expected any) bool {
	if a, ok := toFloat64(actual); ok {
		if e, ok := toFloat64(expected); ok {
			return a == e
		}
	}
	return reflect.DeepEqual(actual, expected)
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
