// Package graphql decodes GraphQL requests as they appear on the wire and
// extracts the operation each document declares.
//
// A GraphQL request arrives either as a GET with "query", "operationName"
// and "variables" URL parameters, or as a POST whose JSON body is a single
// payload object or, for batched calls, an array of them:
//
//	payloads, batch := graphql.DecodeRequest(req)
//	ops, err := graphql.ParseOperations(payloads, graphql.KindQuery)
//
// Documents are parsed with gqlparser; no schema is involved. A request
// without a query is not a GraphQL request and decodes to nothing. A
// document that does not parse yields a *SyntaxError.
package graphql
