package mcptool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"ragengine/internal/adapter/cache"
	"ragengine/internal/domain"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602
	ErrorCodeInternalError = -32603
	ErrorCodeRateLimited   = -32005
)

// handleSearchContext handles the search_context tool invocation
func (s *Server) handleSearchContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.Allow() {
		return nil, newMCPError(ErrorCodeRateLimited, "rate limit exceeded, retry shortly", nil)
	}

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	ns, err := domain.ParseNamespace(getStringDefault(args, "namespace", string(domain.NamespaceDestinations)))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid namespace", map[string]interface{}{
			"param":   "namespace",
			"allowed": namespaceNames(),
		})
	}

	params := domain.DefaultSearchParams(ns, query)
	params.Limit = getIntDefault(args, "limit", domain.DefaultLimit)
	if threshold, exists := args["threshold"].(float64); exists {
		params.Threshold = threshold
	}
	params.UseReranking = getBoolDefault(args, "use_reranking", true)

	// Agent loops repeat themselves; the short-TTL cache sits in front of
	// the engine's own cache so repeats skip even the embedding call. The
	// key excludes the reranking flag, so only reranked searches are cached:
	// a non-reranked entry must never answer a caller who asked for
	// reranking.
	key := cache.Key(params)
	if params.UseReranking {
		if entry, hit := s.cache.Get(key); hit {
			return mcp.NewToolResultText(formatSearchResults(params, entry.Results, entry.RerankingApplied, true)), nil
		}
	}

	resp, err := s.searcher.Search(ctx, params)
	if err != nil {
		if domain.IsValidation(err) {
			return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if params.UseReranking {
		s.cache.Put(key, cache.Entry{Results: resp.Results, RerankingApplied: resp.RerankingApplied})
	}

	return mcp.NewToolResultText(formatSearchResults(params, resp.Results, resp.RerankingApplied, false)), nil
}

// handleIndexDocuments handles the index_documents tool invocation
func (s *Server) handleIndexDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.limiter.Allow() {
		return nil, newMCPError(ErrorCodeRateLimited, "rate limit exceeded, retry shortly", nil)
	}

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	nsRaw, ok := args["namespace"].(string)
	if !ok || nsRaw == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "namespace parameter is required", map[string]interface{}{
			"param":  "namespace",
			"reason": "missing or empty",
		})
	}
	ns, err := domain.ParseNamespace(nsRaw)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid namespace", map[string]interface{}{
			"param":   "namespace",
			"allowed": namespaceNames(),
		})
	}

	rawDocs, ok := args["documents"].([]interface{})
	if !ok || len(rawDocs) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "documents parameter is required and cannot be empty", map[string]interface{}{
			"param":  "documents",
			"reason": "missing or empty",
		})
	}

	docs := make([]domain.Document, 0, len(rawDocs))
	for _, raw := range rawDocs {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "documents entries must be objects", nil)
		}
		content, _ := obj["content"].(string)
		sourceID, _ := obj["sourceId"].(string)
		doc := domain.Document{Content: content, SourceID: sourceID}
		if meta, ok := obj["metadata"].(map[string]interface{}); ok {
			doc.Metadata = make(map[string]string, len(meta))
			for k, v := range meta {
				if sv, ok := v.(string); ok {
					doc.Metadata[k] = sv
				}
			}
		}
		docs = append(docs, doc)
	}

	var chunkOverlap *int
	if v, ok := args["chunk_overlap"].(float64); ok {
		n := int(v)
		chunkOverlap = &n
	}

	report, err := s.indexer.IndexDocuments(ctx, domain.IndexRequest{
		Documents:    docs,
		Namespace:    ns,
		ChunkSize:    getIntDefault(args, "chunk_size", 0),
		ChunkOverlap: chunkOverlap,
	})
	if err != nil {
		if domain.IsValidation(err) {
			return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// A fresh corpus invalidates the agent-side cache wholesale.
	s.cache.Invalidate()

	response := map[string]interface{}{
		"success":       report.Success,
		"indexed":       report.Indexed,
		"chunksCreated": report.ChunksCreated,
		"namespace":     report.Namespace,
		"total":         report.Total,
		"failed":        report.Failed,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

func formatSearchResults(params domain.SearchParams, results []domain.SearchResult, rerankingApplied, cacheHit bool) string {
	response := map[string]interface{}{
		"success":          true,
		"query":            params.Query,
		"namespace":        params.Namespace,
		"results":          results,
		"rerankingApplied": rerankingApplied,
		"cacheHit":         cacheHit,
	}
	return formatJSON(response)
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}
