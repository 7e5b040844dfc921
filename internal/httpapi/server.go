package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ragengine/internal/domain"
	"ragengine/internal/usecase"
)

// Server exposes the engine over HTTP: ingestion, search and a health probe.
type Server struct {
	indexer  *usecase.Indexer
	searcher *usecase.Searcher
	limiter  *CallerLimiter
	logger   zerolog.Logger
}

func NewServer(indexer *usecase.Indexer, searcher *usecase.Searcher, limiter *CallerLimiter, logger zerolog.Logger) *Server {
	return &Server{
		indexer:  indexer,
		searcher: searcher,
		limiter:  limiter,
		logger:   logger,
	}
}

// Router builds the gin engine with logging, rate limiting and routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLog())

	r.GET("/healthz", s.handleHealth)

	v1 := r.Group("/v1")
	if s.limiter != nil {
		v1.Use(s.limiter.Middleware())
	}
	v1.POST("/index", s.handleIndex)
	v1.POST("/search", s.handleSearch)

	return r
}

// indexRequest keeps ChunkOverlap as a pointer so an explicit zero overlap
// is distinguishable from an absent field.
type indexRequest struct {
	Documents    []documentPayload `json:"documents"`
	Namespace    string            `json:"namespace"`
	ChunkSize    int               `json:"chunkSize"`
	ChunkOverlap *int              `json:"chunkOverlap"`
}

type documentPayload struct {
	ID       string            `json:"id"`
	SourceID string            `json:"sourceId"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// searchRequest uses pointers for optional fields so absent and zero are
// distinguishable; absent selects the engine defaults.
type searchRequest struct {
	Query          string   `json:"query"`
	Namespace      string   `json:"namespace"`
	Limit          *int     `json:"limit"`
	Threshold      *float64 `json:"threshold"`
	UseReranking   *bool    `json:"useReranking"`
	KeywordWeight  *float64 `json:"keywordWeight"`
	SemanticWeight *float64 `json:"semanticWeight"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ns, err := domain.ParseNamespace(req.Namespace)
	if err != nil {
		s.writeError(c, err)
		return
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = domain.Document{
			ID:       d.ID,
			SourceID: d.SourceID,
			Content:  d.Content,
			Metadata: d.Metadata,
		}
	}

	report, err := s.indexer.IndexDocuments(c.Request.Context(), domain.IndexRequest{
		Documents:    docs,
		Namespace:    ns,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	namespace := req.Namespace
	if namespace == "" {
		namespace = string(domain.NamespaceDestinations)
	}
	ns, err := domain.ParseNamespace(namespace)
	if err != nil {
		s.writeError(c, err)
		return
	}

	params := domain.DefaultSearchParams(ns, req.Query)
	if req.Limit != nil {
		params.Limit = *req.Limit
	}
	if req.Threshold != nil {
		params.Threshold = *req.Threshold
	}
	if req.UseReranking != nil {
		params.UseReranking = *req.UseReranking
	}
	if req.KeywordWeight != nil {
		params.KeywordWeight = *req.KeywordWeight
	}
	if req.SemanticWeight != nil {
		params.SemanticWeight = *req.SemanticWeight
	}

	resp, err := s.searcher.Search(c.Request.Context(), params)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writeError maps the error taxonomy onto status codes: caller mistakes are
// 400, upstream provider failures 502, everything storage-shaped 500.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case domain.IsProvider(err):
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
