// Package testing provides a testing SDK for mocking HTTP and GraphQL APIs in
// Go tests.
//
// # Basic Usage
//
// Create a mock server with handlers, point your code at it and assert on
// the requests it captured:
//
//	func TestMyAPI(t *testing.T) {
//	    mock := mwtesting.New(t, []handler.Handler{
//	        handler.Get("/users/:id", func(req *handler.RestRequest, res response.Composer, ctx handler.RestContext) (*response.Response, error) {
//	            return res(ctx.JSON(map[string]string{"id": req.Params["id"]}))
//	        }),
//	    })
//
//	    resp, err := http.Get(mock.URL() + "/users/123")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer resp.Body.Close()
//
//	    mock.AssertCalled(t, "GET", "/users/:id")
//	}
//
// The server is closed when the test ends.
//
// # Without a listener
//
// Client returns an *http.Client whose transport answers requests in
// process, so absolute URLs of real APIs can be mocked:
//
//	client := mock.Client()
//	client.Get("https://api.example.com/users/123")
//
// Requests no handler answers fail the request, and the test, unless
// WithOnUnhandled selects another policy.
//
// # Fluent Builder API
//
// Mock declares REST handlers from a fluent builder:
//
//	mock.Mock("POST", "/api/items").
//	    WithRequestHeader("Authorization", "Bearer *").
//	    WithBodyContains("important").
//	    WithStatus(201).
//	    WithJSON(map[string]any{"id": "new-item"}).
//	    WithDelay("100ms").
//	    Reply()
//
// Handlers added after the server was created take precedence over earlier
// ones. Once makes a handler answer a single request.
//
// # Assertions
//
//	mock.AssertCalledTimes(t, "POST", "/api/items", 1)
//	mock.AssertNotCalled(t, "DELETE", "/api/items/:id")
//	mock.AssertOperationCalled(t, "GetUser")
//
//	req := mock.LastRequest("POST", "/api/items")
//	req.AssertHeader(t, "Content-Type", "application/json")
//	req.AssertJSONField(t, "item.name", "widget")
//
// # Resetting Between Tests
//
// Reset removes handlers added after New and clears the request log.
// Restore makes one-shot handlers answer again.
package testing
