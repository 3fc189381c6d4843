package matching

import (
	"bytes"
	"regexp"
)

type bodyMatcher struct {
	contains string
	equals   string
	pattern  *regexp.Regexp
}

func (m bodyMatcher) match(body []byte) bool {
	if m.equals != "" && string(body) != m.equals {
		return false
	}
	if m.contains != "" && !bytes.Contains(body, []byte(m.contains)) {
		return false
	}
	if m.pattern != nil && !m.pattern.Match(body) {
		return false
	}
	return true
}
