package driven

import "context"

// RerankService scores (query, candidate) pairs with a pairwise relevance
// model such as a cross-encoder. Higher scores are more relevant.
//
// The scoring call is an external collaborator; implementations map
// transport failures and timeouts to domain.ErrUnavailable so the caller
// can fall back to the fused order.
type RerankService interface {
	// Score returns one relevance score per candidate text, in input order.
	Score(ctx context.Context, query string, candidates []string) ([]float64, error)

	// ModelName returns the name of the scoring model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
