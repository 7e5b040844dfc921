package mcptool

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ragengine/internal/adapter/cache"
	"ragengine/internal/usecase"
)

const (
	ServerName    = "ragengine"
	ServerVersion = "1.0.0"

	// AgentCacheTTL is deliberately short: agent loops re-ask the same
	// question within seconds, not minutes.
	AgentCacheTTL = 60 * time.Second
)

// Server exposes the engine to orchestrating agents over MCP stdio. It
// carries its own rate limiter and short-TTL cache, independent of the HTTP
// path.
type Server struct {
	mcp      *server.MCPServer
	indexer  *usecase.Indexer
	searcher *usecase.Searcher
	limiter  *rate.Limiter
	cache    *cache.QueryCache
	logger   zerolog.Logger
}

// NewServer wires the MCP server and registers the tools.
func NewServer(indexer *usecase.Indexer, searcher *usecase.Searcher, requestsPerSecond float64, logger zerolog.Logger) *Server {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		indexer:  indexer,
		searcher: searcher,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond)+1),
		cache:    cache.NewQueryCache(256, AgentCacheTTL),
		logger:   logger,
	}

	s.mcp.AddTool(searchContextTool(), s.handleSearchContext)
	s.mcp.AddTool(indexDocumentsTool(), s.handleIndexDocuments)

	return s
}

// Serve runs the server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}
