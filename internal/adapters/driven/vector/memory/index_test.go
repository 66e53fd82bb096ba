package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Search_OrdersBySimilarity(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "c-1", []float32{1, 0, 0}, nil))
	require.NoError(t, idx.Upsert(ctx, "c-2", []float32{0.9, 0.1, 0}, nil))
	require.NoError(t, idx.Upsert(ctx, "c-3", []float32{0, 1, 0}, nil))

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 10)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c-1", results[0].ChunkID)
	assert.Equal(t, "c-2", results[1].ChunkID)
	assert.Equal(t, "c-3", results[2].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 3, results[2].Rank)
}

func TestIndex_Search_LimitApplied(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "c-1", []float32{1, 0}, nil))
	require.NoError(t, idx.Upsert(ctx, "c-2", []float32{0, 1}, nil))

	results, err := idx.Search(ctx, []float32{1, 0}, 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c-1", results[0].ChunkID)
}

func TestIndex_Search_EmptyQuery(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Upsert(context.Background(), "c-1", []float32{1, 0}, nil))

	results, err := idx.Search(context.Background(), nil, 5)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_Upsert_Replaces(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "c-1", []float32{1, 0}, nil))
	require.NoError(t, idx.Upsert(ctx, "c-1", []float32{0, 1}, nil))

	results, err := idx.Search(ctx, []float32{0, 1}, 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_Upsert_EmptyEmbedding(t *testing.T) {
	idx := New()

	err := idx.Upsert(context.Background(), "c-1", nil, nil)

	assert.Error(t, err)
}

func TestIndex_DeleteAndList(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "c-1", []float32{1, 0}, nil))
	require.NoError(t, idx.Upsert(ctx, "c-2", []float32{0, 1}, nil))

	require.NoError(t, idx.Delete(ctx, []string{"c-1", "c-unknown"}))

	ids, err := idx.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-2"}, ids)
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}
