package matching

import (
	"net/http"
	"slices"
	"strings"
)

// MatchHeaders reports whether every expected header has a value matching
// its pattern. Header names are case-insensitive.
func MatchHeaders(expected map[string]string, headers http.Header) bool {
	for name, pattern := range expected {
		if !anyMatches(pattern, headers.Values(name)) {
			return false
		}
	}
	return true
}

func anyMatches(pattern string, values []string) bool {
	return slices.ContainsFunc(values, func(v string) bool {
		return MatchPattern(pattern, v)
	})
}

// MatchPattern matches value against a pattern where "*" stands for any run
// of characters. A pattern without "*" must equal value.
func MatchPattern(pattern, value string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}

	parts := strings.Split(pattern, "*")
	head, tail := parts[0], parts[len(parts)-1]
	if !strings.HasPrefix(value, head) {
		return false
	}
	value = value[len(head):]

	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(value, part)
		if i < 0 {
			return false
		}
		value = value[i+len(part):]
	}
	return strings.HasSuffix(value, tail)
}
