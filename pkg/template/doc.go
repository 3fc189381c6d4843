// Package template expands {{expression}} placeholders in mocked responses.
//
// Placeholders are evaluated per request against a [Context]:
//
//	{{request.method}}            request method
//	{{request.path}}              URL path
//	{{request.url}}               full URL
//	{{request.rawBody}}           body as text
//	{{request.body.user.name}}    JSONPath into a JSON body ($.user.name)
//	{{request.query.page}}        first query parameter value
//	{{request.header.X-Trace}}    request header
//	{{request.params.id}}         path parameter captured by the URL mask
//	{{graphql.operationName}}     GraphQL operation name
//	{{graphql.variables.id}}      GraphQL variable, JSONPath into the variables
//
// Generated values:
//
//	{{now}} {{timestamp}} {{timestamp.iso}} {{timestamp.unix_ms}}
//	{{uuid}} {{uuid.short}}
//	{{random}} {{random.int(1, 10)}} {{random.float(0, 1, 2)}} {{random.string(8)}}
//	{{sequence("orders", 1000)}}
//
// Functions take expressions or quoted literals:
//
//	{{upper(request.params.name)}} {{lower("ABC")}}
//	{{default(request.query.page, "1")}}
//
// Unknown expressions expand to the empty string.
package template
