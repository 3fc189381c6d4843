// Package handler defines mock handlers: declared rules that decide whether
// an intercepted request is theirs and, if so, produce a mocked response.
//
// Two variants exist. REST handlers match on method and URL mask:
//
//	handler.Get("/users/:id", func(req *handler.RestRequest, res response.Composer, ctx handler.RestContext) (*response.Response, error) {
//	    return res(ctx.JSON(map[string]string{"id": req.Params["id"]}))
//	})
//
// GraphQL handlers match on operation kind and name, optionally scoped to an
// endpoint with Link:
//
//	github := handler.Link("https://api.github.com/graphql")
//	github.Query("GetUser", func(req *handler.GraphQLRequest, res response.Composer, ctx handler.GraphQLContext) (*response.Response, error) {
//	    return res(ctx.Data(map[string]any{"user": map[string]any{"login": "octocat"}}))
//	})
//
// A resolver that returns a nil response declines the request and lets the
// next relevant handler answer it.
package handler
