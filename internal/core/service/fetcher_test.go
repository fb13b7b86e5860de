package service

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	apperrors "github.com/komodo-ops/change-detector/internal/errors"
	"github.com/komodo-ops/change-detector/internal/log"
)

type fakeReadClient struct {
	mu      sync.Mutex
	queryFn func(requestType string, params map[string]any) []map[string]any
	calls   []string
}

func (f *fakeReadClient) Query(ctx context.Context, requestType string, params map[string]any) []map[string]any {
	f.mu.Lock()
	f.calls = append(f.calls, requestType)
	f.mu.Unlock()
	if f.queryFn == nil {
		return nil
	}
	return f.queryFn(requestType, params)
}

func stackList(names ...string) []map[string]any {
	list := make([]map[string]any, 0, len(names))
	for _, name := range names {
		list = append(list, map[string]any{"name": name, "tags": []any{"507f1f77bcf86cd799439011"}})
	}
	return list
}

func TestFetcher_FetchByName(t *testing.T) {
	client := &fakeReadClient{queryFn: func(requestType string, params map[string]any) []map[string]any {
		switch requestType {
		case "ListStacks":
			return stackList("svc-a", "svc-b")
		case "GetStack":
			name, _ := params["stack"].(string)
			return []map[string]any{{"name": name, "config": map[string]any{"image": "v1"}}}
		}
		return nil
	}}

	f := NewFetcher(client, testLogger(), 5)
	got := f.Fetch(context.Background(), domain.KindStack, []any{"prod"}, nil)

	require.Len(t, got, 2)
	assert.Equal(t, "svc-a", got["svc-a"].Name())
	assert.Contains(t, got["svc-a"], "config")
}

func TestFetcher_RetryByIdentifier(t *testing.T) {
	const stackID = "507f1f77bcf86cd799439021"

	client := &fakeReadClient{queryFn: func(requestType string, params map[string]any) []map[string]any {
		switch requestType {
		case "ListStacks":
			return []map[string]any{{"name": "svc-a", "_id": map[string]any{"$oid": stackID}}}
		case "GetStack":
			if id, ok := params["id"].(string); ok && id == stackID {
				return []map[string]any{{"name": "svc-a", "config": map[string]any{"image": "v1"}}}
			}
			// by-name lookup yields a nameless shell
			return []map[string]any{{"config": map[string]any{}}}
		}
		return nil
	}}

	f := NewFetcher(client, testLogger(), 5)
	got := f.Fetch(context.Background(), domain.KindStack, []any{"prod"}, nil)

	require.Len(t, got, 1)
	assert.Contains(t, got["svc-a"], "config")
	assert.Equal(t, "svc-a", got["svc-a"].Name())
}

func TestFetcher_OneFailureFallsBackToSummary(t *testing.T) {
	names := []string{"svc-a", "svc-b", "svc-c", "svc-d", "svc-e"}

	client := &fakeReadClient{queryFn: func(requestType string, params map[string]any) []map[string]any {
		switch requestType {
		case "ListStacks":
			return stackList(names...)
		case "GetStack":
			name, _ := params["stack"].(string)
			if name == "svc-c" {
				// hard failure for this one resource
				return nil
			}
			return []map[string]any{{"name": name, "config": map[string]any{"image": "v1"}}}
		}
		return nil
	}}

	f := NewFetcher(client, testLogger(), 5)
	got := f.Fetch(context.Background(), domain.KindStack, []any{"prod"}, nil)

	require.Len(t, got, 5, "every requested name keeps an entry")
	for _, name := range names {
		require.Contains(t, got, name)
		assert.Equal(t, name, got[name].Name())
	}
	// svc-c fell back to its summary: no config sub-mapping
	assert.NotContains(t, got["svc-c"], "config")
	assert.Contains(t, got["svc-a"], "config")
}

func TestFetcher_EmptyListing(t *testing.T) {
	client := &fakeReadClient{}
	f := NewFetcher(client, testLogger(), 5)

	got := f.Fetch(context.Background(), domain.KindStack, []any{"prod"}, nil)
	assert.Empty(t, got)
}

func TestFetcher_RecoversUntaggedServers(t *testing.T) {
	client := &fakeReadClient{queryFn: func(requestType string, params map[string]any) []map[string]any {
		switch requestType {
		case "ListServers":
			query, _ := params["query"].(map[string]any)
			if query != nil {
				// tag-filtered listing is empty
				return nil
			}
			// unfiltered listing includes the untagged server
			return []map[string]any{
				{"name": "edge-1"},
				{"name": "other-server"},
			}
		case "GetServer":
			name, _ := params["server"].(string)
			if name == "" {
				return nil
			}
			return []map[string]any{{"name": name, "config": map[string]any{"address": "10.0.0.1"}}}
		}
		return nil
	}}

	f := NewFetcher(client, testLogger(), 5)
	desiredNames := map[string]struct{}{"edge-1": {}}
	got := f.Fetch(context.Background(), domain.KindServer, []any{"prod"}, desiredNames)

	require.Len(t, got, 1)
	assert.Contains(t, got, "edge-1")
	assert.NotContains(t, got, "other-server")
}

func TestFetcher_KeepsNamedEntryWithOddTagShape(t *testing.T) {
	client := &fakeReadClient{queryFn: func(requestType string, params map[string]any) []map[string]any {
		switch requestType {
		case "ListStacks":
			// tags should be a list here, but a bad shape must not
			// cost us the resource
			return []map[string]any{{"name": "svc-odd", "tags": "prod"}}
		case "GetStack":
			return []map[string]any{{"name": "svc-odd", "config": map[string]any{"image": "v1"}}}
		}
		return nil
	}}

	f := NewFetcher(client, testLogger(), 5)
	got := f.Fetch(context.Background(), domain.KindStack, []any{"prod"}, nil)

	require.Contains(t, got, "svc-odd")
	assert.Contains(t, got["svc-odd"], "config")
}

func TestFetcher_FallbackWarningCarriesErrorCode(t *testing.T) {
	var buf bytes.Buffer
	client := &fakeReadClient{queryFn: func(requestType string, params map[string]any) []map[string]any {
		if requestType == "ListStacks" {
			return stackList("svc-a")
		}
		return nil
	}}

	f := NewFetcher(client, log.NewWriterLogger(&buf, log.Config{}), 1)
	got := f.Fetch(context.Background(), domain.KindStack, []any{"prod"}, nil)

	require.Contains(t, got, "svc-a")
	assert.Contains(t, buf.String(), string(apperrors.CodeDetailFetchError))
}

func TestFetcher_NamelessListEntriesDropped(t *testing.T) {
	client := &fakeReadClient{queryFn: func(requestType string, params map[string]any) []map[string]any {
		if requestType == "ListStacks" {
			return []map[string]any{
				{"name": "svc-a"},
				{"tags": []any{"x"}},
			}
		}
		if requestType == "GetStack" {
			return []map[string]any{{"name": "svc-a"}}
		}
		return nil
	}}

	f := NewFetcher(client, testLogger(), 5)
	got := f.Fetch(context.Background(), domain.KindStack, []any{"prod"}, nil)
	assert.Len(t, got, 1)
}
