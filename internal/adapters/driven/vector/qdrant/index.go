// Package qdrant provides a VectorIndex adapter backed by a Qdrant
// server over its REST API. The server owns the vectors; this adapter
// only reads and writes through it.
package qdrant

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
	"github.com/vintner-labs/vinsearch/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:6333"
	DefaultCollection = "vinsearch"
	DefaultTimeout    = 15 * time.Second
)

// Config holds connection details for a Qdrant vector store.
type Config struct {
	// BaseURL is the Qdrant REST endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey authenticates requests when set.
	APIKey string

	// Collection is the collection name (default: vinsearch).
	Collection string

	// Dimensions is the embedding vector size; the collection is created
	// with this size if it does not exist.
	Dimensions int

	// Timeout bounds each request (default: 15s). A timeout surfaces as
	// domain.ErrUnavailable, not a hang.
	Timeout time.Duration
}

// Index is a minimal REST client to Qdrant assuming cosine distance.
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
}

// New creates a Qdrant-backed vector index and ensures the collection
// exists with cosine distance.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive", domain.ErrInvalidInput)
	}

	idx := &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}

	// Create collection if missing. Qdrant returns 200 when it already
	// exists with the same schema.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     cfg.Dimensions,
			"distance": "Cosine",
		},
	}
	if err := idx.do(ctx, http.MethodPut, "/collections/"+cfg.Collection, body, nil); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	logger.Info("Qdrant collection %q ready at %s", cfg.Collection, cfg.BaseURL)
	return idx, nil
}

// Upsert writes a vector for the given chunk ID with its payload.
func (idx *Index) Upsert(ctx context.Context, chunkID string, embedding []float32, payload map[string]string) error {
	point := map[string]any{
		"id":     chunkID,
		"vector": embedding,
	}
	if len(payload) > 0 {
		point["payload"] = payload
	}
	body := map[string]any{"points": []any{point}}
	return idx.do(ctx, http.MethodPut, "/collections/"+idx.collection+"/points?wait=true", body, nil)
}

// Delete removes vectors for the given chunk IDs.
func (idx *Index) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	body := map[string]any{"points": chunkIDs}
	return idx.do(ctx, http.MethodPost, "/collections/"+idx.collection+"/points/delete?wait=true", body, nil)
}

// Search finds up to limit nearest neighbours ordered by descending
// cosine similarity.
func (idx *Index) Search(ctx context.Context, query []float32, limit int) ([]domain.RankedCandidate, error) {
	if len(query) == 0 || limit <= 0 {
		return []domain.RankedCandidate{}, nil
	}

	body := map[string]any{
		"vector": query,
		"limit":  limit,
	}
	var resp struct {
		Result []struct {
			ID    string  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	if err := idx.do(ctx, http.MethodPost, "/collections/"+idx.collection+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.RankedCandidate, len(resp.Result))
	for i, r := range resp.Result {
		results[i] = domain.RankedCandidate{
			ChunkID: r.ID,
			Score:   r.Score,
			Rank:    i + 1,
		}
	}
	return results, nil
}

// List pages through all point IDs via the scroll API.
func (idx *Index) List(ctx context.Context) ([]string, error) {
	var ids []string
	var offset any

	for {
		body := map[string]any{
			"limit":        1000,
			"with_payload": false,
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					ID string `json:"id"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := idx.do(ctx, http.MethodPost, "/collections/"+idx.collection+"/points/scroll", body, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			ids = append(ids, p.ID)
		}
		if resp.Result.NextPageOffset == nil {
			return ids, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.client.CloseIdleConnections()
	return nil
}

// do executes one JSON request. Transport failures, timeouts, and server
// errors map to domain.ErrUnavailable so the caller can degrade.
func (idx *Index) do(ctx context.Context, method, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, idx.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idx.apiKey != "" {
		req.Header.Set("api-key", idx.apiKey)
	}

	resp, err := idx.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: qdrant returned status %d", domain.ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant error (status %d): %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
