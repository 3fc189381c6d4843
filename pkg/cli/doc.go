// Package cli provides the command-line interface for mockwire.
//
// Commands load handlers from a definitions file (--config) and/or an
// OpenAPI document (--openapi):
//   - resolve: Resolve a single request and print the mocked response
//   - validate: Check a definitions file without serving it
//   - handlers: List the handlers a source produces, in priority order
//   - serve: Serve the handlers over HTTP, optionally reloading on change
//   - version: Show mockwire version
//
// Usage:
//
//	mockwire resolve -c mocks.yaml GET http://localhost/users/1
//	mockwire resolve -c mocks.yaml --jq .body.name GET /users/1
//	mockwire resolve --openapi petstore.yaml -d '{"name":"Rex"}' POST /pets
//	mockwire validate -c mocks.yaml
//	mockwire handlers --openapi petstore.yaml --json
//	mockwire serve -c mocks.yaml --addr :4280 --watch
package cli
