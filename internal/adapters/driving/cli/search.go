package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

var (
	searchLimit    int
	searchJSON     bool
	searchRerank   bool
	searchVectorW  float64
	searchKeywordW float64
	searchDedupThr float64
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed corpus",
	Long: `Performs hybrid search over the indexed wine documents.
Combines keyword (BM25) and semantic (vector) retrieval with weighted
rank fusion, removes near-duplicate chunks, and optionally reranks the
shortlist with a cross-encoder.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", false, "rerank the shortlist with the cross-encoder")
	searchCmd.Flags().Float64Var(&searchVectorW, "vector-weight", domain.DefaultVectorWeight, "fusion weight for the vector leg")
	searchCmd.Flags().Float64Var(&searchKeywordW, "keyword-weight", domain.DefaultKeywordWeight, "fusion weight for the keyword leg")
	searchCmd.Flags().Float64Var(&searchDedupThr, "dedup-threshold", domain.DefaultDedupThreshold, "cosine similarity above which chunks are near-duplicates")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ctx := context.Background()
	opts := domain.RetrievalOptions{
		Limit:          searchLimit,
		VectorWeight:   searchVectorW,
		KeywordWeight:  searchKeywordW,
		DedupThreshold: searchDedupThr,
		Rerank:         searchRerank,
	}

	results, err := retrievalService.Retrieve(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, results[i].ChunkID, results[i].Score)
		if results[i].Metadata.SourceName != "" {
			cmd.Printf("      Source: %s\n", results[i].Metadata.SourceName)
		}
		cmd.Printf("      %s\n", snippet(results[i].Text, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates text for single-line display.
func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
