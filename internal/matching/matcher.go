package matching

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
)

// Conditions constrain a request beyond its URL mask. Every non-empty
// condition must hold.
type Conditions struct {
	// Headers maps header names to value patterns ("*" wildcards).
	Headers map[string]string
	// Query maps query parameter names to value patterns.
	Query map[string]string

	BodyContains string
	BodyEquals   string
	// BodyPattern is an RE2 regular expression tested against the raw body.
	BodyPattern string

	// JSONPath maps JSONPath expressions to expected values, or to
	// {exists: bool} for presence checks.
	JSONPath map[string]any
}

// Empty reports whether c has no conditions.
func (c Conditions) Empty() bool {
	return len(c.Headers) == 0 && len(c.Query) == 0 && len(c.JSONPath) == 0 &&
		c.BodyContains == "" && c.BodyEquals == "" && c.BodyPattern == ""
}

// Matcher evaluates compiled Conditions.
type Matcher struct {
	headers map[string]string
	query   map[string]string
	body    bodyMatcher
	paths   []jsonPathCondition
}

// Compile validates c and prepares it for matching.
func Compile(c Conditions) (*Matcher, error) {
	m := &Matcher{
		headers: c.Headers,
		query:   c.Query,
		body:    bodyMatcher{contains: c.BodyContains, equals: c.BodyEquals},
	}
	if c.BodyPattern != "" {
		re, err := regexp.Compile(c.BodyPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid body pattern %q: %w", c.BodyPattern, err)
		}
		m.body.pattern = re
	}
	paths, err := compileJSONPath(c.JSONPath)
	if err != nil {
		return nil, err
	}
	m.paths = paths
	return m, nil
}

// Match reports whether the request parts satisfy every condition.
func (m *Matcher) Match(header http.Header, query url.Values, body []byte) bool {
	if m == nil {
		return true
	}
	return MatchHeaders(m.headers, header) &&
		MatchQuery(m.query, query) &&
		m.body.match(body) &&
		matchJSONPath(m.paths, body)
}
