// Package matching provides the URL mask matcher and request conditions used
// by request handlers.
//
// A mask is either a string or a compiled regular expression:
//
//   - "/users/:id" matches "/users/42" and captures {"id": "42"}
//   - "/users/*" matches "/users/42/posts" (wildcards span segments)
//   - "*/users" matches the path "/users" on any origin
//   - "https://api.example.com/users" matches that exact origin and path
//   - regexp.MustCompile(`/users/\d+$`) is tested against the clean URL
//
// String masks are anchored: the whole target must match, with an optional
// trailing slash. The query string and fragment are ignored unless the mask
// itself contains a "?". Regular expression masks are not anchored and never
// produce params.
//
// Conditions add header, query and body constraints on top of a mask. They
// are compiled once into a Matcher:
//
//	m, err := matching.Compile(matching.Conditions{
//	    Headers:  map[string]string{"Authorization": "Bearer *"},
//	    JSONPath: map[string]any{"$.user.role": "admin"},
//	})
//
// Matching is pure and deterministic. Compiled string masks are cached, so
// evaluating the same mask for every request costs a map lookup.
package matching
