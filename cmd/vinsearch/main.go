// Command vinsearch indexes a directory of wine documents and serves
// hybrid retrieval queries over them.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vintner-labs/vinsearch/internal/adapters/driven/config/file"
	"github.com/vintner-labs/vinsearch/internal/adapters/driven/embedding/ollama"
	"github.com/vintner-labs/vinsearch/internal/adapters/driven/embedding/openai"
	"github.com/vintner-labs/vinsearch/internal/adapters/driven/index/bm25"
	"github.com/vintner-labs/vinsearch/internal/adapters/driven/rerank/crossencoder"
	"github.com/vintner-labs/vinsearch/internal/adapters/driven/source/filesystem"
	"github.com/vintner-labs/vinsearch/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/vintner-labs/vinsearch/internal/adapters/driven/vector/memory"
	"github.com/vintner-labs/vinsearch/internal/adapters/driven/vector/qdrant"
	"github.com/vintner-labs/vinsearch/internal/adapters/driving/cli"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
	"github.com/vintner-labs/vinsearch/internal/core/services"
	"github.com/vintner-labs/vinsearch/internal/logger"
	"github.com/vintner-labs/vinsearch/internal/postprocessors/chunker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for API keys; absence is not an error.
	_ = godotenv.Load()

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.dir"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	// The keyword index lives in memory and rebuilds from the chunk
	// store at startup.
	searchIndex := bm25.New()
	if err := searchIndex.Load(ctx, store.ChunkStore()); err != nil {
		return fmt.Errorf("load keyword index: %w", err)
	}
	logger.Debug("Keyword index loaded: %d chunks", searchIndex.Len())

	embeddingService, err := buildEmbeddingService(cfg)
	if err != nil {
		return err
	}

	vectorIndex, err := buildVectorIndex(ctx, cfg, embeddingService)
	if err != nil {
		return err
	}

	rerankService := crossencoder.NewRerankService(crossencoder.Config{
		BaseURL: cfg.GetString("rerank.url"),
		Model:   cfg.GetString("rerank.model"),
	})

	retrieval := services.NewRetrievalService(
		searchIndex, vectorIndex, embeddingService, rerankService, store.ChunkStore())
	if capacity := cfg.GetInt("retrieval.cache_capacity"); capacity > 0 {
		retrieval.SetCacheCapacity(capacity)
	}
	if timeout := cfg.GetInt("retrieval.leg_timeout_ms"); timeout > 0 {
		retrieval.SetLegTimeout(time.Duration(timeout) * time.Millisecond)
	}

	sourceDir := cfg.GetString("source.dir")
	if sourceDir == "" {
		sourceDir = "."
	}
	source, err := filesystem.NewSource(sourceDir)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	chunkSize := cfg.GetInt("chunking.size")
	overlap := cfg.GetInt("chunking.overlap")
	docChunker := chunker.New(chunker.WithChunkSize(chunkSize), chunker.WithOverlap(overlap))

	ingest := services.NewIngestService(
		source, docChunker, embeddingService, store.ChunkStore(),
		searchIndex, vectorIndex, store.ManifestStore())
	ingest.SetCollection(cfg.GetString("ingest.collection"))
	if rate := cfg.GetFloat("ingest.embed_rate"); rate > 0 {
		ingest.SetEmbedRate(rate)
	}
	ingest.SetOnIndexChanged(retrieval.ClearCache)

	cli.SetServices(retrieval, ingest, cfg, source)
	return cli.Execute()
}

// buildEmbeddingService constructs the configured embedding backend.
// Provider "none" (or unset) disables the vector leg.
func buildEmbeddingService(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	switch provider := cfg.GetString("embedding.provider"); provider {
	case "", "none":
		logger.Debug("No embedding provider configured, keyword search only")
		return nil, nil

	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil

	case "openai":
		apiKey := cfg.GetString("embedding.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.GetString("embedding.url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// buildVectorIndex constructs the configured vector store. Without an
// embedding service there is nothing to search, so none is built.
func buildVectorIndex(ctx context.Context, cfg driven.ConfigStore, embedding driven.EmbeddingService) (driven.VectorIndex, error) {
	if embedding == nil {
		return nil, nil
	}

	switch provider := cfg.GetString("vector.provider"); provider {
	case "", "memory":
		return vectormem.New(), nil

	case "qdrant":
		apiKey := cfg.GetString("vector.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("QDRANT_API_KEY")
		}
		return qdrant.New(ctx, qdrant.Config{
			BaseURL:    cfg.GetString("vector.url"),
			APIKey:     apiKey,
			Collection: cfg.GetString("vector.collection"),
			Dimensions: embedding.Dimensions(),
		})

	default:
		return nil, fmt.Errorf("unknown vector provider %q", provider)
	}
}
