package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"ragengine/internal/domain"
	"ragengine/internal/port"
)

// CohereReranker scores query-candidate pairs via Cohere's rerank API. Any
// provider exposing the same wire format can be pointed at with baseURL.
type CohereReranker struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

func NewCohereReranker(apiKeyEnv, model string) (*CohereReranker, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if model == "" {
		model = "rerank-english-v3.0"
	}

	return &CohereReranker{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.cohere.ai/v1",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Rerank scores and reorders candidates by query relevance.
func (r *CohereReranker) Rerank(ctx context.Context, query string, candidateTexts []string) ([]port.RerankedResult, error) {
	if len(candidateTexts) == 0 {
		return nil, nil
	}

	// Provider limit on documents per request.
	const maxDocs = 1000
	if len(candidateTexts) > maxDocs {
		candidateTexts = candidateTexts[:maxDocs]
	}

	reqBody := rerankRequest{
		Query:     query,
		Documents: candidateTexts,
		Model:     r.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "rerank/" + r.model, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &domain.ProviderError{Provider: "rerank/" + r.model, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "rerank/" + r.model, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "rerank/" + r.model, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ProviderError{
			Provider: "rerank/" + r.model,
			Err:      fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var rr rerankResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, &domain.ProviderError{Provider: "rerank/" + r.model, Err: err}
	}

	results := make([]port.RerankedResult, len(rr.Results))
	for i, res := range rr.Results {
		results[i] = port.RerankedResult{
			Index: res.Index,
			Score: res.RelevanceScore,
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

func (r *CohereReranker) ModelName() string {
	return r.model
}
