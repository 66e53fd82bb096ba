package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driving"
	"github.com/vintner-labs/vinsearch/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// defaultLegTimeout bounds each retrieval leg so one slow backend cannot
// stall the whole query.
const defaultLegTimeout = 5 * time.Second

// RetrievalService answers queries with the hybrid pipeline: keyword and
// vector search in parallel, weighted rank fusion, two-pass dedup,
// optional cross-encoder reranking, and an LRU result cache.
type RetrievalService struct {
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	rerankService    driven.RerankService
	chunkStore       driven.ChunkStore

	cache      *queryCache
	legTimeout time.Duration
}

// NewRetrievalService creates a retrieval service. The vectorIndex,
// embeddingService, and rerankService parameters are optional (can be
// nil); retrieval degrades to the legs that are available.
func NewRetrievalService(
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	rerankService driven.RerankService,
	chunkStore driven.ChunkStore,
) *RetrievalService {
	return &RetrievalService{
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		rerankService:    rerankService,
		chunkStore:       chunkStore,
		cache:            newQueryCache(DefaultCacheCapacity),
		legTimeout:       defaultLegTimeout,
	}
}

// SetCacheCapacity replaces the query cache with one of the given
// capacity, discarding cached results.
func (s *RetrievalService) SetCacheCapacity(capacity int) {
	s.cache = newQueryCache(capacity)
}

// SetLegTimeout overrides the per-leg search timeout.
func (s *RetrievalService) SetLegTimeout(d time.Duration) {
	if d > 0 {
		s.legTimeout = d
	}
}

// CacheStats returns a snapshot of the query cache counters.
func (s *RetrievalService) CacheStats() domain.CacheStats {
	return s.cache.stats()
}

// ClearCache drops all cached query results. The ingest pipeline calls
// this after the index changes so stale results are never served.
func (s *RetrievalService) ClearCache() {
	s.cache.clear()
}

// Retrieve runs the full retrieval pipeline for a query.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Retrieval")

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	normalized := domain.NormalizeQuery(query)
	logger.Debug("Query: %q (normalized %q), limit=%d, weights=%.2f/%.2f, rerank=%t",
		query, normalized, opts.Limit, opts.VectorWeight, opts.KeywordWeight, opts.Rerank)

	key := opts.CacheKey(normalized)
	if results, ok := s.cache.get(key); ok {
		logger.Debug("Cache hit")
		return results, nil
	}

	// Over-fetch each leg so fusion and dedup have headroom.
	legLimit := opts.Limit * 3

	keyword, vector, err := s.runLegs(ctx, normalized, legLimit)
	if err != nil {
		return nil, err
	}

	fused := fuse([]rankedList{
		{source: domain.SourceKeyword, candidates: keyword, weight: opts.KeywordWeight},
		{source: domain.SourceVector, candidates: vector, weight: opts.VectorWeight},
	})
	logger.Debug("Fused %d keyword + %d vector hits into %d candidates",
		len(keyword), len(vector), len(fused))

	chunks, scores, err := s.hydrate(ctx, fused)
	if err != nil {
		return nil, err
	}

	chunks = dedup(chunks, opts.DedupThreshold)

	results := make([]domain.RetrievedChunk, len(chunks))
	for i := range chunks {
		results[i] = domain.RetrievedChunk{
			ChunkID:  chunks[i].ID,
			Text:     chunks[i].Content,
			Score:    scores[chunks[i].ID],
			Metadata: chunks[i].Metadata,
		}
	}

	// Reranking sees the whole deduplicated shortlist so a precise
	// pairwise score can promote a candidate past the fused top-k.
	if opts.Rerank {
		results = s.rerank(ctx, normalized, results)
	}
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	s.cache.put(key, results)
	logger.Info("Retrieved %d chunks", len(results))
	return results, nil
}

// runLegs executes the keyword and vector searches in parallel with a
// per-leg timeout. One failed leg degrades to the other; both failing
// fails the query.
func (s *RetrievalService) runLegs(
	ctx context.Context, normalizedQuery string, limit int,
) (keyword, vector []domain.RankedCandidate, err error) {
	var keywordErr, vectorErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		legCtx, cancel := context.WithTimeout(ctx, s.legTimeout)
		defer cancel()
		keyword, keywordErr = s.keywordSearch(legCtx, normalizedQuery, limit)
	}()

	go func() {
		defer wg.Done()
		legCtx, cancel := context.WithTimeout(ctx, s.legTimeout)
		defer cancel()
		vector, vectorErr = s.vectorSearch(legCtx, normalizedQuery, limit)
	}()

	wg.Wait()

	if keywordErr != nil && vectorErr != nil {
		logger.Warn("Both retrieval legs failed")
		return nil, nil, fmt.Errorf("%w: keyword: %v; vector: %v",
			domain.ErrRetrievalFailed, keywordErr, vectorErr)
	}
	if keywordErr != nil {
		logger.Warn("Keyword leg failed, continuing vector-only: %v", keywordErr)
		return nil, vector, nil
	}
	if vectorErr != nil {
		logger.Warn("Vector leg failed, continuing keyword-only: %v", vectorErr)
		return keyword, nil, nil
	}
	return keyword, vector, nil
}

// keywordSearch runs the BM25 leg.
func (s *RetrievalService) keywordSearch(
	ctx context.Context, normalizedQuery string, limit int,
) ([]domain.RankedCandidate, error) {
	if s.searchIndex == nil {
		return nil, fmt.Errorf("%w: no keyword index", domain.ErrUnavailable)
	}
	terms := domain.Tokenize(normalizedQuery)
	hits, err := s.searchIndex.Search(ctx, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword leg: %d hits", len(hits))
	return hits, nil
}

// vectorSearch embeds the query and runs the nearest-neighbour leg.
func (s *RetrievalService) vectorSearch(
	ctx context.Context, normalizedQuery string, limit int,
) ([]domain.RankedCandidate, error) {
	if s.vectorIndex == nil || s.embeddingService == nil {
		return nil, fmt.Errorf("%w: no vector retriever", domain.ErrUnavailable)
	}
	embedding, err := s.embeddingService.Embed(ctx, normalizedQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.vectorIndex.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector leg: %d hits", len(hits))
	return hits, nil
}

// hydrate loads the fused candidates from the chunk store, preserving
// fused order, and returns the fused score per chunk ID. Candidates
// whose chunk rows have since been deleted are skipped.
func (s *RetrievalService) hydrate(
	ctx context.Context, fused []domain.FusedCandidate,
) ([]domain.Chunk, map[string]float64, error) {
	chunks := make([]domain.Chunk, 0, len(fused))
	scores := make(map[string]float64, len(fused))

	for _, cand := range fused {
		chunk, err := s.chunkStore.GetChunk(ctx, cand.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Skipping stale candidate %s", cand.ChunkID)
				continue
			}
			return nil, nil, fmt.Errorf("hydrate chunk %s: %w", cand.ChunkID, err)
		}
		chunks = append(chunks, *chunk)
		scores[cand.ChunkID] = cand.Score
	}
	return chunks, scores, nil
}

// rerank reorders the shortlist by pairwise relevance. Any rerank
// failure falls back to the fused order.
func (s *RetrievalService) rerank(
	ctx context.Context, normalizedQuery string, results []domain.RetrievedChunk,
) []domain.RetrievedChunk {
	if s.rerankService == nil || len(results) == 0 {
		return results
	}

	texts := make([]string, len(results))
	for i := range results {
		texts[i] = results[i].Text
	}

	rerankCtx, cancel := context.WithTimeout(ctx, s.legTimeout)
	defer cancel()

	scores, err := s.rerankService.Score(rerankCtx, normalizedQuery, texts)
	if err != nil || len(scores) != len(results) {
		logger.Warn("Reranker unavailable, keeping fused order: %v", err)
		return results
	}

	for i := range results {
		results[i].Score = scores[i]
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	logger.Debug("Reranked %d chunks with %s", len(results), s.rerankService.ModelName())
	return results
}
