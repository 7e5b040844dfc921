package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragengine/internal/adapter/chunker"
	"ragengine/internal/adapter/embedding"
	"ragengine/internal/adapter/memstore"
	"ragengine/internal/domain"
	"ragengine/internal/usecase"
)

func newTestRouter(t *testing.T, limiter *CallerLimiter) *gin.Engine {
	t.Helper()
	store := memstore.NewMemoryStore(8)
	embedder := embedding.NewMockEmbedder(8)
	indexer := usecase.NewIndexer(store, embedder, chunker.NewSentenceChunker(), zerolog.Nop())
	searcher := usecase.NewSearcher(store, embedder, nil, nil, zerolog.Nop())
	return NewServer(indexer, searcher, limiter, zerolog.Nop()).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, nil)
	w := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIndexEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/index", map[string]any{
		"namespace": "test",
		"documents": []map[string]any{
			{"sourceId": "doc-1", "content": "Lisbon has historic trams. They climb steep hills."},
		},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report domain.IndexReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Indexed)
	assert.Greater(t, report.ChunksCreated, 0)
}

func TestIndexEndpointRejectsBadNamespace(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/index", map[string]any{
		"namespace": "nope",
		"documents": []map[string]any{{"content": "text"}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/index", map[string]any{
		"namespace": "test",
		"documents": []map[string]any{
			{"sourceId": "doc-1", "content": "Lisbon has historic trams. They climb steep hills."},
		},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/search", map[string]any{
		"query":        "lisbon trams",
		"namespace":    "test",
		"threshold":    0,
		"useReranking": false,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Results)
	assert.Equal(t, "lisbon trams", resp.Query)
}

func TestSearchEndpointValidation(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/search", map[string]any{
		"query":     "lisbon",
		"namespace": "test",
		"limit":     500,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimiting(t *testing.T) {
	router := newTestRouter(t, NewCallerLimiter(1, 1))

	headers := map[string]string{"X-Caller-ID": "agent-1"}
	body := map[string]any{"query": "lisbon", "namespace": "test", "useReranking": false}

	first := doJSON(t, router, http.MethodPost, "/v1/search", body, headers)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, router, http.MethodPost, "/v1/search", body, headers)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// A different caller has its own bucket.
	other := doJSON(t, router, http.MethodPost, "/v1/search", body, map[string]string{"X-Caller-ID": "agent-2"})
	assert.Equal(t, http.StatusOK, other.Code)
}
