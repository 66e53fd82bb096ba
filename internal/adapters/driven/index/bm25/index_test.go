package bm25

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

func chunk(id, content string) domain.Chunk {
	return domain.Chunk{
		ID:          id,
		Content:     content,
		Fingerprint: domain.Fingerprint(content),
	}
}

func TestIndex_Search_EmptyTerms(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []domain.Chunk{chunk("c1", "barolo nebbiolo")}))

	results, err := idx.Search(ctx, nil, 10)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_Search_EmptyIndex(t *testing.T) {
	idx := New()

	results, err := idx.Search(context.Background(), []string{"riesling"}, 10)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_Search_TermFrequencyOrdering(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []domain.Chunk{
		chunk("c-a", "oak barrel aging"),
		chunk("c-b", "oak oak tannin"),
		chunk("c-c", "malolactic fermentation notes"),
	}))

	results, err := idx.Search(ctx, []string{"oak"}, 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	// Higher term frequency wins when document lengths are equal.
	assert.Equal(t, "c-b", results[0].ChunkID)
	assert.Equal(t, "c-a", results[1].ChunkID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[1].Rank)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestIndex_Search_RareTermScoresHigher(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []domain.Chunk{
		chunk("c-1", "tannin structure"),
		chunk("c-2", "tannin grip"),
		chunk("c-3", "tannin finish"),
		chunk("c-4", "botrytis influence"),
	}))

	common, err := idx.Search(ctx, []string{"tannin"}, 1)
	require.NoError(t, err)
	rare, err := idx.Search(ctx, []string{"botrytis"}, 1)
	require.NoError(t, err)

	require.Len(t, common, 1)
	require.Len(t, rare, 1)
	assert.Greater(t, rare[0].Score, common[0].Score)
}

func TestIndex_Search_TiesBreakByChunkID(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []domain.Chunk{
		chunk("c-b", "pinot noir"),
		chunk("c-a", "pinot noir"),
	}))

	results, err := idx.Search(ctx, []string{"pinot"}, 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c-a", results[0].ChunkID)
	assert.Equal(t, "c-b", results[1].ChunkID)
}

func TestIndex_Search_LimitApplied(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []domain.Chunk{
		chunk("c-1", "syrah pepper"),
		chunk("c-2", "syrah smoke"),
		chunk("c-3", "syrah violet"),
	}))

	results, err := idx.Search(ctx, []string{"syrah"}, 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIndex_Index_Idempotent(t *testing.T) {
	idx := New()
	ctx := context.Background()
	c := chunk("c-1", "chablis minerality")

	require.NoError(t, idx.Index(ctx, []domain.Chunk{c}))
	first, err := idx.Search(ctx, []string{"chablis"}, 10)
	require.NoError(t, err)

	require.NoError(t, idx.Index(ctx, []domain.Chunk{c}))
	second, err := idx.Search(ctx, []string{"chablis"}, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, first, second)
}

func TestIndex_Index_ReplacesContent(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []domain.Chunk{chunk("c-1", "gamay carbonic")}))
	require.NoError(t, idx.Index(ctx, []domain.Chunk{{ID: "c-1", Content: "mourvedre gamey"}}))

	old, err := idx.Search(ctx, []string{"gamay"}, 10)
	require.NoError(t, err)
	assert.Empty(t, old)

	renewed, err := idx.Search(ctx, []string{"mourvedre"}, 10)
	require.NoError(t, err)
	require.Len(t, renewed, 1)
	assert.Equal(t, "c-1", renewed[0].ChunkID)
}

func TestIndex_Delete(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []domain.Chunk{
		chunk("c-1", "vermentino citrus"),
		chunk("c-2", "vermentino saline"),
	}))

	require.NoError(t, idx.Delete(ctx, "c-1"))

	results, err := idx.Search(ctx, []string{"vermentino"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c-2", results[0].ChunkID)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_Delete_Unknown(t *testing.T) {
	idx := New()

	require.NoError(t, idx.Delete(context.Background(), "missing"))
	assert.Equal(t, 0, idx.Len())
}
