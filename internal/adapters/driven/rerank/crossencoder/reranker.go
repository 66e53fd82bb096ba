// Package crossencoder provides a RerankService adapter that calls a
// pairwise relevance scoring server over HTTP. The server hosts a
// cross-encoder model that scores a (query, candidate) pair jointly.
package crossencoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
)

// Ensure RerankService implements the interface.
var _ driven.RerankService = (*RerankService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8580"
	DefaultModel   = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultTimeout = 20 * time.Second
)

// Config holds configuration for the scoring server.
type Config struct {
	// BaseURL is the scoring server endpoint (default: http://localhost:8580).
	BaseURL string

	// Model is the cross-encoder model name.
	Model string

	// Timeout bounds each scoring call (default: 20s). A timeout
	// surfaces as domain.ErrUnavailable so the caller can fall back to
	// the fused order.
	Timeout time.Duration
}

// RerankService scores query-candidate pairs via a remote cross-encoder.
type RerankService struct {
	client  *http.Client
	baseURL string
	model   string
}

// rerankRequest is the scoring server request format.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

// rerankResponse is the scoring server response format.
type rerankResponse struct {
	Scores []float64 `json:"scores"`
}

// NewRerankService creates a new cross-encoder rerank service.
func NewRerankService(cfg Config) *RerankService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &RerankService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Score returns one relevance score per candidate text, in input order.
func (s *RerankService) Score(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	reqBody := rerankRequest{
		Model:     s.model,
		Query:     query,
		Documents: candidates,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: reranker: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: reranker returned status %d", domain.ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reranker error (status %d): %s", resp.StatusCode, string(body))
	}

	var scoreResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoreResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(scoreResp.Scores) != len(candidates) {
		return nil, fmt.Errorf("reranker returned %d scores for %d candidates",
			len(scoreResp.Scores), len(candidates))
	}
	return scoreResp.Scores, nil
}

// ModelName returns the name of the scoring model.
func (s *RerankService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *RerankService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
