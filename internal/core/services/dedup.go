package services

import (
	"math"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/logger"
)

// cosine computes cosine similarity between two embeddings. Mismatched
// lengths compare over the shorter prefix; zero vectors yield 0.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// dedup removes redundant chunks from a fused, ranked list while
// preserving rank order of survivors. Two passes run in order: an exact
// fingerprint pass, then a greedy semantic pass comparing each survivor
// against all higher-ranked accepted chunks. The earliest member of a
// near-duplicate cluster always survives, which makes the operation
// idempotent for a fixed threshold.
//
// O(n²) in the list size; n is tens after fusion, not thousands.
func dedup(chunks []domain.Chunk, threshold float64) []domain.Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	// Exact pass: drop repeated content fingerprints.
	seen := make(map[string]bool, len(chunks))
	exact := make([]domain.Chunk, 0, len(chunks))
	for i := range chunks {
		fp := chunks[i].Fingerprint
		if fp != "" && seen[fp] {
			continue
		}
		seen[fp] = true
		exact = append(exact, chunks[i])
	}
	if dropped := len(chunks) - len(exact); dropped > 0 {
		logger.Debug("Dedup: removed %d exact duplicates", dropped)
	}

	// Semantic pass: greedy, in rank order, against accepted survivors.
	// Chunks without embeddings cannot be compared and are kept.
	accepted := make([]domain.Chunk, 0, len(exact))
	for i := range exact {
		duplicate := false
		if len(exact[i].Embedding) > 0 {
			for j := range accepted {
				if len(accepted[j].Embedding) == 0 {
					continue
				}
				if cosine(exact[i].Embedding, accepted[j].Embedding) >= threshold {
					logger.Debug("Dedup: chunk %s is near-duplicate of %s", exact[i].ID, accepted[j].ID)
					duplicate = true
					break
				}
			}
		}
		if !duplicate {
			accepted = append(accepted, exact[i])
		}
	}

	if dropped := len(exact) - len(accepted); dropped > 0 {
		logger.Info("Dedup: removed %d near-duplicate chunks (%d remaining)", dropped, len(accepted))
	}
	return accepted
}
