package mcptool

import (
	"github.com/mark3labs/mcp-go/mcp"

	"ragengine/internal/domain"
)

func namespaceNames() []string {
	names := make([]string, 0, len(domain.Namespaces()))
	for _, ns := range domain.Namespaces() {
		names = append(names, string(ns))
	}
	return names
}

// searchContextTool returns the tool definition for search_context
func searchContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_context",
		Description: "Retrieve the most relevant indexed passages for a query using hybrid vector + keyword search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language query",
				},
				"namespace": map[string]interface{}{
					"type":        "string",
					"description": "Corpus partition to search",
					"enum":        namespaceNames(),
					"default":     string(domain.NamespaceDestinations),
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of passages to return (1-100)",
					"default":     domain.DefaultLimit,
					"minimum":     1,
					"maximum":     domain.MaxLimit,
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum normalized similarity (0.0-1.0)",
					"default":     domain.DefaultThreshold,
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"use_reranking": map[string]interface{}{
					"type":        "boolean",
					"description": "Re-score top candidates with the reranking model",
					"default":     true,
				},
			},
			Required: []string{"query"},
		},
	}
}

// indexDocumentsTool returns the tool definition for index_documents
func indexDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_documents",
		Description: "Chunk, embed and store documents under a namespace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"namespace": map[string]interface{}{
					"type":        "string",
					"description": "Corpus partition to write into",
					"enum":        namespaceNames(),
				},
				"documents": map[string]interface{}{
					"type":        "array",
					"description": "Documents to ingest",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"content": map[string]interface{}{
								"type":        "string",
								"description": "Raw document text",
							},
							"sourceId": map[string]interface{}{
								"type":        "string",
								"description": "Stable source identity; re-indexing the same sourceId replaces its chunks",
							},
							"metadata": map[string]interface{}{
								"type":        "object",
								"description": "Opaque string key/value pairs carried on every chunk",
							},
						},
						"required": []string{"content"},
					},
				},
				"chunk_size": map[string]interface{}{
					"type":        "integer",
					"description": "Chunk size in characters",
					"default":     domain.DefaultChunkSize,
				},
				"chunk_overlap": map[string]interface{}{
					"type":        "integer",
					"description": "Overlap between consecutive chunks in characters",
					"default":     domain.DefaultChunkOverlap,
				},
			},
			Required: []string{"namespace", "documents"},
		},
	}
}
