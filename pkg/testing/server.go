package testing

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/mockwire/internal/matching"
	"github.com/getmockd/mockwire/pkg/handler"
	"github.com/getmockd/mockwire/pkg/intercept"
	"github.com/getmockd/mockwire/pkg/requestlog"
)

// Option configures a MockServer.
type Option func(*MockServer)

// WithOnUnhandled sets the policy for requests no handler answers. The
// default is intercept.OnUnhandledError.
func WithOnUnhandled(p intercept.UnhandledPolicy) Option {
	return func(m *MockServer) {
		m.onUnhandled = p
	}
}

// WithInterceptorOptions passes options to the underlying interceptor.
func WithInterceptorOptions(opts ...intercept.Option) Option {
	return func(m *MockServer) {
		m.interceptOpts = append(m.interceptOpts, opts...)
	}
}

// MockServer is a test helper serving mocks over HTTP and in process.
type MockServer struct {
	t             testing.TB
	mocks         *intercept.Interceptor
	requests      *requestlog.MemoryStore
	onUnhandled   intercept.UnhandledPolicy
	interceptOpts []intercept.Option

	mu      sync.Mutex
	httpSrv *httptest.Server
}

// New creates a mock server with the initial handlers. It is stopped when
// the test completes.
func New(t testing.TB, handlers []handler.Handler, opts ...Option) *MockServer {
	t.Helper()

	m := &MockServer{
		t:           t,
		requests:    requestlog.NewMemoryStore(0),
		onUnhandled: intercept.OnUnhandledError,
	}
	for _, opt := range opts {
		opt(m)
	}

	iopts := append([]intercept.Option{
		intercept.WithRequestLog(m.requests),
		intercept.WithOnUnhandled(m.onUnhandled),
	}, m.interceptOpts...)
	m.mocks = intercept.New(handlers, iopts...)

	t.Cleanup(m.Stop)
	return m
}

// Start starts the HTTP listener and returns its base URL. Calling Start
// again returns the same URL.
func (m *MockServer) Start() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.httpSrv == nil {
		m.httpSrv = httptest.NewServer(m.mocks)
	}
	return m.httpSrv.URL
}

// URL returns the base URL of the HTTP listener, starting it when needed.
func (m *MockServer) URL() string {
	return m.Start()
}

// Stop closes the HTTP listener.
func (m *MockServer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.httpSrv != nil {
		m.httpSrv.Close()
		m.httpSrv = nil
	}
}

// Client returns a client whose requests are answered in process. Requests
// that bypass the mocks are sent over the network.
func (m *MockServer) Client() *http.Client {
	return &http.Client{Transport: m.mocks.Transport(nil)}
}

// Use adds handlers that take precedence over the existing ones.
func (m *MockServer) Use(handlers ...handler.Handler) {
	m.mocks.Use(handlers...)
}

// Reset removes handlers added after New and clears the request log.
func (m *MockServer) Reset() {
	m.mocks.ResetHandlers()
	m.requests.Clear()
}

// Restore makes used one-shot handlers answer again.
func (m *MockServer) Restore() {
	m.mocks.RestoreHandlers()
}

// Interceptor returns the underlying interceptor for advanced use cases.
func (m *MockServer) Interceptor() *intercept.Interceptor {
	return m.mocks
}

// PrintHandlers writes the active handlers to w.
func (m *MockServer) PrintHandlers(w io.Writer) {
	if err := m.mocks.PrintHandlers(w); err != nil {
		m.t.Errorf("printing handlers: %v", err)
	}
}

// Requests returns the captured requests, oldest first.
func (m *MockServer) Requests() []RequestLog {
	entries := m.requests.List(nil)
	result := make([]RequestLog, len(entries))
	for i, entry := range entries {
		result[len(entries)-1-i] = newRequestLog(entry)
	}
	return result
}

// LastRequest returns the most recent request matching method and path, or
// nil. The path may be a mask such as /users/:id.
func (m *MockServer) LastRequest(method, path string) *RequestLog {
	for _, entry := range m.requests.List(&requestlog.Filter{Method: strings.ToUpper(method)}) {
		if matchesPath(entry, path) {
			r := newRequestLog(entry)
			return &r
		}
	}
	return nil
}

// AssertCalled asserts that an endpoint was called at least once.
func (m *MockServer) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if m.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (m *MockServer) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	if count := m.countCalls(method, path); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (m *MockServer) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	if count := m.countCalls(method, path); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

// AssertOperationCalled asserts that a GraphQL operation was requested and
// answered by a GraphQL handler.
func (m *MockServer) AssertOperationCalled(t testing.TB, operationName string) {
	t.Helper()

	filter := &requestlog.Filter{Kind: requestlog.KindGraphQL, OperationName: operationName}
	if len(m.requests.List(filter)) == 0 {
		t.Errorf("expected GraphQL operation %q to be called, but it was not called", operationName)
	}
}

// AssertNoUnhandled asserts that every request was answered by a handler.
func (m *MockServer) AssertNoUnhandled(t testing.TB) {
	t.Helper()

	for _, entry := range m.requests.List(&requestlog.Filter{Outcome: requestlog.OutcomeBypass}) {
		if entry.HandlerID == "" {
			t.Errorf("unhandled request: %s %s", entry.Method, entry.URL)
		}
	}
}

func (m *MockServer) countCalls(method, path string) int {
	count := 0
	for _, entry := range m.requests.List(&requestlog.Filter{Method: strings.ToUpper(method)}) {
		if matchesPath(entry, path) {
			count++
		}
	}
	return count
}

// matchesPath reports whether the captured URL matches path, a URL mask.
func matchesPath(entry *requestlog.Entry, path string) bool {
	u, err := url.Parse(entry.URL)
	if err != nil {
		return false
	}
	return matching.MatchRequestURL(u, path).Matches
}
