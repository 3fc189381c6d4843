// Package requestlog records every request the interceptor resolved, for
// inspection in tests and from the CLI.
//
// It is distinct from operational logging, which uses log/slog. An Entry
// captures the request, the outcome of its resolution (mocked, passthrough,
// bypass or error) and the handler that answered it:
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{Kind: requestlog.KindREST, Method: "GET", Path: "/users"})
//	entries := store.List(&requestlog.Filter{Outcome: requestlog.OutcomeMocked})
//
// Entries are returned newest first.
package requestlog
