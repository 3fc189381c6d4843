// Package config loads declarative handler definitions from YAML files.
//
// A definitions file lists handlers in priority order. Entries are either
// inline definitions or includes of other files:
//
//	version: "1"
//	handlers:
//	  - id: get-user
//	    rest:
//	      method: GET
//	      path: /users/:id
//	    when: params.id != "0"
//	    response:
//	      status: 200
//	      json:
//	        id: "${USER_ID:-42}"
//	        name: John
//
//	  - graphql:
//	      operation: query
//	      name: GetUser
//	    response:
//	      data:
//	        user: { id: "1" }
//
//	  - file: mocks/orders.yaml
//	  - files: "mocks/**/*.yaml"
//
// Included paths are relative to the including file; "**" globs match
// recursively and are loaded in sorted order. ${VAR} and ${VAR:-default}
// references are expanded from the environment before parsing.
//
// Documents are validated against an embedded JSON schema, then each entry
// is checked for consistency. Build turns the definitions into handlers:
//
//	defs, err := config.Load("mockwire.yaml")
//	if err != nil {
//	    return err
//	}
//	handlers, err := config.Build(defs)
//
// The optional when expression is evaluated with expr-lang against the
// request (method, path, url, params, query, headers, body, operationName
// and variables). A handler whose when expression or match conditions do
// not hold declines the request, so later handlers can answer it.
//
// Response strings may hold {{...}} placeholders, expanded per request by
// package template:
//
//	response:
//	  headers:
//	    Location: /users/{{request.params.id}}
//	  json:
//	    id: "{{request.params.id}}"
//	    requestId: "{{uuid}}"
package config
