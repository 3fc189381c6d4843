package requestlog

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_JSONRoundTrip(t *testing.T) {
	entry := &Entry{
		ID:             "req-1",
		Timestamp:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Kind:           KindGraphQL,
		Method:         "POST",
		URL:            "http://localhost/graphql",
		Path:           "/graphql",
		Outcome:        OutcomeMocked,
		Handler:        "query GetUser",
		ResponseStatus: 200,
		GraphQL: &GraphQLMeta{
			Batch:      true,
			Operations: []GraphQLOperation{{OperationType: "query", OperationName: "GetUser"}},
		},
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded Entry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *entry, decoded)
}

func TestEntry_JSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(&Entry{ID: "x"})
	require.NoError(t, err)

	for _, key := range []string{"graphql", "handlerId", "error", "responseBody", "headers"} {
		assert.NotContains(t, string(data), `"`+key+`"`)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))
	assert.Len(t, Truncate(strings.Repeat("a", MaxBodySize+10)), MaxBodySize)
}

func TestMemoryStore_LogAndGet(t *testing.T) {
	store := NewMemoryStore(10)

	entry := &Entry{Method: "GET", Path: "/users"}
	store.Log(entry)

	assert.Equal(t, "req-1", entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, KindREST, entry.Kind)
	assert.Same(t, entry, store.Get("req-1"))
	assert.Nil(t, store.Get("missing"))

	store.Log(nil)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStore_KeepsExplicitID(t *testing.T) {
	store := NewMemoryStore(10)
	store.Log(&Entry{ID: "custom"})
	assert.NotNil(t, store.Get("custom"))
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore(10)
	for i := range 3 {
		store.Log(&Entry{Path: fmt.Sprintf("/%d", i)})
	}

	list := store.List(nil)
	require.Len(t, list, 3)
	assert.Equal(t, "/2", list[0].Path)
	assert.Equal(t, "/0", list[2].Path)
}

func TestMemoryStore_ListFilter(t *testing.T) {
	store := NewMemoryStore(10)
	store.Log(&Entry{Kind: KindREST, Method: "GET", Path: "/users/1", Outcome: OutcomeMocked, HandlerID: "h1", ResponseStatus: 200})
	store.Log(&Entry{Kind: KindREST, Method: "POST", Path: "/users", Outcome: OutcomeBypass})
	store.Log(&Entry{Kind: KindGraphQL, Method: "POST", Path: "/graphql", Outcome: OutcomeMocked, HandlerID: "h2", ResponseStatus: 200,
		GraphQL: &GraphQLMeta{Operations: []GraphQLOperation{{OperationName: "GetUser"}, {OperationName: "GetPosts"}}}})
	store.Log(&Entry{Kind: KindREST, Method: "GET", Path: "/posts", Outcome: OutcomeError, Error: "boom"})

	tests := []struct {
		name   string
		filter *Filter
		want   int
	}{
		{"kind", &Filter{Kind: KindGraphQL}, 1},
		{"method is case insensitive", &Filter{Method: "post"}, 2},
		{"outcome", &Filter{Outcome: OutcomeMocked}, 2},
		{"path prefix", &Filter{Path: "/users"}, 2},
		{"handler", &Filter{HandlerID: "h1"}, 1},
		{"status", &Filter{StatusCode: 200}, 2},
		{"operation name", &Filter{OperationName: "GetPosts"}, 1},
		{"unknown operation", &Filter{OperationName: "Nope"}, 0},
		{"combined", &Filter{Method: "GET", Outcome: OutcomeError}, 1},
		{"limit", &Filter{Limit: 3}, 3},
		{"offset", &Filter{Offset: 3}, 1},
		{"offset past end", &Filter{Offset: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, store.List(tt.filter), tt.want)
		})
	}
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	store := NewMemoryStore(2)
	store.Log(&Entry{ID: "a"})
	store.Log(&Entry{ID: "b"})
	store.Log(&Entry{ID: "c"})

	assert.Equal(t, 2, store.Count())
	assert.Nil(t, store.Get("a"))
	assert.NotNil(t, store.Get("c"))
}

func TestMemoryStore_DefaultCapacity(t *testing.T) {
	store := NewMemoryStore(0)
	assert.Equal(t, 1000, store.maxEntries)
}

func TestMemoryStore_Clear(t *testing.T) {
	store := NewMemoryStore(10)
	store.Log(&Entry{})
	store.Log(&Entry{})
	store.Clear()
	assert.Zero(t, store.Count())
	assert.Empty(t, store.List(nil))
}

func TestMemoryStore_CountByHandler(t *testing.T) {
	store := NewMemoryStore(10)
	store.Log(&Entry{HandlerID: "h1"})
	store.Log(&Entry{HandlerID: "h1"})
	store.Log(&Entry{HandlerID: "h2"})

	assert.Equal(t, 2, store.CountByHandler("h1"))
	assert.Equal(t, 0, store.CountByHandler("h3"))
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore(10)
	sub, unsubscribe := store.Subscribe()

	store.Log(&Entry{ID: "live"})

	select {
	case got := <-sub:
		assert.Equal(t, "live", got.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive entry")
	}

	unsubscribe()
	unsubscribe()
	_, open := <-sub
	assert.False(t, open)

	// Logging after unsubscribe must not panic.
	store.Log(&Entry{})
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore(50)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				store.Log(&Entry{Path: fmt.Sprintf("/%d/%d", i, j)})
				_ = store.List(&Filter{Limit: 5})
				_ = store.Count()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Count())
}
