package komodo

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-ops/change-detector/internal/core/ports"
	apperrors "github.com/komodo-ops/change-detector/internal/errors"
	"github.com/komodo-ops/change-detector/internal/log"
)

func testLogger() ports.Logger {
	return log.NewWriterLogger(io.Discard, log.Config{})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &Config{
		BaseURL:   srv.URL,
		APIKey:    "key",
		APISecret: "secret",
	}
	return NewClient(cfg, testLogger()), srv
}

func TestClient_Query_ListResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/read", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "secret", r.Header.Get("X-API-SECRET"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"ListStacks","params":{}}`, string(body))

		w.Write([]byte(`[{"name":"svc-a"},{"name":"svc-b"}]`))
	})

	results := client.Query(context.Background(), "ListStacks", nil)
	require.Len(t, results, 2)
	assert.Equal(t, "svc-a", results[0]["name"])
	assert.Equal(t, "svc-b", results[1]["name"])
}

func TestClient_Query_SingleMappingBecomesList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"svc-a","config":{"image":"v1"}}`))
	})

	results := client.Query(context.Background(), "GetStack", map[string]any{"stack": "svc-a"})
	require.Len(t, results, 1)
	assert.Equal(t, "svc-a", results[0]["name"])
}

func TestClient_Query_ErrorOnlyMappingIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"stack not found"}`))
	})

	results := client.Query(context.Background(), "GetStack", map[string]any{"stack": "missing"})
	assert.Empty(t, results)
}

func TestClient_Query_ErrorResponsesCarryCodes(t *testing.T) {
	var buf bytes.Buffer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"stack not found"}`))
	}))
	t.Cleanup(srv.Close)

	cfg := &Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"}
	client := NewClient(cfg, log.NewWriterLogger(&buf, log.Config{}))

	assert.Empty(t, client.Query(context.Background(), "GetStack", map[string]any{"stack": "missing"}))
	assert.Contains(t, buf.String(), string(apperrors.CodeAPIError))
}

func TestClient_Query_PartialErrorPayloadIsRecovered(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"stale cache","name":"svc-a","config":{"image":"v1"}}`))
	})

	results := client.Query(context.Background(), "GetStack", map[string]any{"stack": "svc-a"})
	require.Len(t, results, 1)
	assert.Equal(t, "svc-a", results[0]["name"])
	assert.Equal(t, "stale cache", results[0]["error"])
}

func TestClient_Query_EmptyAndNullResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"null", `null`},
		{"empty object", `{}`},
		{"empty body", ``},
		{"empty list", `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			assert.Empty(t, client.Query(context.Background(), "ListStacks", nil))
		})
	}
}

func TestClient_Query_MalformedResponseIsEmpty(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"bare string", `"oops"`},
		{"bare number", `42`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			assert.Empty(t, client.Query(context.Background(), "ListStacks", nil))
		})
	}
}

func TestClient_Query_ConnectionErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := &Config{BaseURL: srv.URL, APIKey: "k", APISecret: "s"}
	srv.Close() // connection refused from here on

	client := NewClient(cfg, testLogger())
	assert.Empty(t, client.Query(context.Background(), "ListStacks", nil))
}

func TestClient_Query_NonMappingListEntriesSkipped(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"svc-a"},"garbage",3]`))
	})

	results := client.Query(context.Background(), "ListStacks", nil)
	require.Len(t, results, 1)
	assert.Equal(t, "svc-a", results[0]["name"])
}

func TestNewClient_RateLimitBounds(t *testing.T) {
	logger := testLogger()

	c := NewClient(&Config{BaseURL: "http://x", RateLimitRPS: 0}, logger)
	assert.NotNil(t, c.limiter)

	c = NewClient(&Config{BaseURL: "http://x", RateLimitRPS: 5000}, logger)
	assert.NotNil(t, c.limiter)
}
