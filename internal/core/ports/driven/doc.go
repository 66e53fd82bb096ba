// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). Core services depend only on these
// interfaces; adapters implement them.
//
// External model calls (embedding, pairwise reranking) are expressed as
// small capability interfaces so test doubles can substitute deterministic
// stand-ins without the real models.
package driven
