package matching

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Mask is a string pattern or a *regexp.Regexp.
type Mask any

// AnyURL is the mask that matches every request.
const AnyURL = "*"

// Match is the result of testing a URL against a mask.
type Match struct {
	Matches bool
	Params  map[string]string
}

var maskCache sync.Map // string -> *regexp.Regexp

// MatchRequestURL tests u against mask.
// A nil mask or an empty string matches every URL.
func MatchRequestURL(u *url.URL, mask Mask) Match {
	switch m := mask.(type) {
	case nil:
		return Match{Matches: true, Params: map[string]string{}}
	case *regexp.Regexp:
		if m == nil {
			return Match{Matches: true, Params: map[string]string{}}
		}
		return Match{Matches: m.MatchString(CleanURL(u)), Params: map[string]string{}}
	case string:
		return matchString(u, m)
	case fmt.Stringer:
		return matchString(u, m.String())
	default:
		return Match{Params: map[string]string{}}
	}
}

// ValidateMask reports whether mask is a supported mask type.
func ValidateMask(mask Mask) error {
	switch mask.(type) {
	case nil, string, *regexp.Regexp, fmt.Stringer:
		return nil
	default:
		return fmt.Errorf("unsupported mask type %T", mask)
	}
}

// String returns a printable form of the mask.
func String(mask Mask) string {
	switch m := mask.(type) {
	case nil:
		return AnyURL
	case *regexp.Regexp:
		return m.String()
	case string:
		if m == "" {
			return AnyURL
		}
		return m
	default:
		return fmt.Sprint(m)
	}
}

// CleanURL returns the scheme, host and path of u without query or fragment.
// Relative URLs yield only their path.
func CleanURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.Host == "" {
		return path
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + u.Host + path
}

func matchString(u *url.URL, mask string) Match {
	if mask == "" || mask == AnyURL {
		return Match{Matches: true, Params: map[string]string{}}
	}
	if u == nil {
		return Match{Params: map[string]string{}}
	}

	absolute := strings.Contains(mask, "://") || strings.HasPrefix(mask, "*")
	if !absolute && !strings.HasPrefix(mask, "/") {
		mask = "/" + mask
	}

	target := u.Path
	if target == "" {
		target = "/"
	}
	if absolute {
		target = CleanURL(u)
	}
	if strings.Contains(mask, "?") && u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	re := compileMask(mask)
	groups := re.FindStringSubmatch(target)
	if groups == nil {
		return Match{Params: map[string]string{}}
	}

	params := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		if _, seen := params[name]; seen {
			continue
		}
		params[name] = groups[i]
	}
	return Match{Matches: true, Params: params}
}

func compileMask(mask string) *regexp.Regexp {
	if re, ok := maskCache.Load(mask); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(maskExpression(mask))
	actual, _ := maskCache.LoadOrStore(mask, re)
	return actual.(*regexp.Regexp)
}

// maskExpression converts a string mask into an anchored regular expression.
// Runs of "*" match any characters; ":name" matches a single segment when it
// is followed by "/", "." or the end of the mask.
func maskExpression(mask string) string {
	body := mask
	if len(body) > 1 {
		body = strings.TrimRight(body, "/")
	}
	if body == "/" {
		body = ""
	}

	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '*':
			for i < len(body) && body[i] == '*' {
				i++
			}
			b.WriteString(".*")
		case c == ':':
			name, end := paramName(body, i+1)
			if name == "" {
				b.WriteString(regexp.QuoteMeta(":"))
				i++
				continue
			}
			b.WriteString("(?P<" + name + ">[^/]+?)")
			i = end
		default:
			start := i
			for i < len(body) && body[i] != '*' && body[i] != ':' {
				i++
			}
			b.WriteString(regexp.QuoteMeta(body[start:i]))
		}
	}
	b.WriteString("/?$")
	return b.String()
}

// paramName reads a parameter name starting at i. It returns an empty name
// when the characters at i do not form a parameter segment.
func paramName(s string, i int) (string, int) {
	start := i
	for i < len(s) && isNameChar(s[i], i == start) {
		i++
	}
	if i == start {
		return "", start
	}
	if i < len(s) && s[i] != '/' && s[i] != '.' {
		return "", start
	}
	return s[start:i], i
}

func isNameChar(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	default:
		return false
	}
}
