package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Default retrieval parameters.
const (
	// DefaultLimit is the number of results returned when none is requested.
	DefaultLimit = 10

	// DefaultVectorWeight is the RRF weight for the vector leg.
	DefaultVectorWeight = 0.7

	// DefaultKeywordWeight is the RRF weight for the keyword leg.
	DefaultKeywordWeight = 0.3

	// DefaultDedupThreshold is the cosine similarity above which two
	// chunks are treated as near-duplicates.
	DefaultDedupThreshold = 0.90
)

// RankedCandidate is a single result from one retriever. Scores are on a
// scale specific to the producing retriever and are only comparable within
// the same ranked list.
type RankedCandidate struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the raw relevance score (BM25 or cosine similarity).
	Score float64

	// Rank is the 1-based position within the producing retriever's list.
	Rank int
}

// CandidateSource identifies which retriever contributed a candidate.
type CandidateSource string

const (
	// SourceKeyword marks a contribution from the keyword index.
	SourceKeyword CandidateSource = "keyword"

	// SourceVector marks a contribution from the vector retriever.
	SourceVector CandidateSource = "vector"
)

// FusedCandidate is a candidate after rank fusion. Fused scores are
// comparable across candidates of the same query but never across queries
// or configurations.
type FusedCandidate struct {
	// ChunkID is the candidate chunk.
	ChunkID string

	// Score is the fused RRF score.
	Score float64

	// BestRank is the smallest rank the chunk held in any contributing list.
	BestRank int

	// Sources lists the retrievers that contributed to the score.
	Sources []CandidateSource
}

// RetrievalOptions configures one retrieval request. The zero value plus
// Normalize yields the documented defaults.
type RetrievalOptions struct {
	// Limit is the maximum number of results (default 10).
	Limit int

	// VectorWeight is the RRF weight for the vector leg (default 0.7).
	VectorWeight float64

	// KeywordWeight is the RRF weight for the keyword leg (default 0.3).
	KeywordWeight float64

	// DedupThreshold is the semantic dedup cosine threshold (default 0.9).
	DedupThreshold float64

	// Rerank enables cross-encoder reranking of the shortlist.
	Rerank bool
}

// Normalize fills unset options with defaults. It does not validate.
func (o RetrievalOptions) Normalize() RetrievalOptions {
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if o.VectorWeight == 0 && o.KeywordWeight == 0 {
		o.VectorWeight = DefaultVectorWeight
		o.KeywordWeight = DefaultKeywordWeight
	}
	if o.DedupThreshold == 0 {
		o.DedupThreshold = DefaultDedupThreshold
	}
	return o
}

// Validate checks the options for malformed values.
func (o RetrievalOptions) Validate() error {
	if o.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	if o.VectorWeight < 0 || o.KeywordWeight < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrInvalidInput)
	}
	if o.VectorWeight+o.KeywordWeight <= 0 {
		return fmt.Errorf("%w: fusion weights must sum to a positive value", ErrInvalidInput)
	}
	if o.DedupThreshold <= 0 || o.DedupThreshold > 1 {
		return fmt.Errorf("%w: dedup threshold must be in (0, 1]", ErrInvalidInput)
	}
	return nil
}

// CacheKey derives the deterministic cache key for a normalized query and
// every option that affects the result.
func (o RetrievalOptions) CacheKey(normalizedQuery string) string {
	material := fmt.Sprintf("%s|%d|%.6f|%.6f|%.6f|%t",
		normalizedQuery, o.Limit, o.VectorWeight, o.KeywordWeight, o.DedupThreshold, o.Rerank)
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// RetrievedChunk is one entry of a final retrieval result.
type RetrievedChunk struct {
	// ChunkID is the chunk identifier.
	ChunkID string

	// Text is the chunk content.
	Text string

	// Score is the final relevance score (rerank score when reranking
	// ran, fused RRF score otherwise).
	Score float64

	// Metadata is the chunk metadata.
	Metadata ChunkMetadata
}

// NormalizeQuery lowercases a query and collapses runs of whitespace.
// Domain-specific term expansion happens upstream of retrieval.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Tokenize splits a normalized query or chunk into terms for the keyword
// index: lowercase, whitespace-separated, stripped of surrounding
// punctuation.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}
