package matching

import "net/url"

// MatchQuery reports whether every expected query parameter has a value
// matching its pattern. A pattern of "*" only requires the parameter to exist.
func MatchQuery(expected map[string]string, params url.Values) bool {
	for name, pattern := range expected {
		if !anyMatches(pattern, params[name]) {
			return false
		}
	}
	return true
}
