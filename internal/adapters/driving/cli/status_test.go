package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

func TestStatusCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("status")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 3")
	assert.Contains(t, out, "Chunks:    12")
}

func TestStatusCmd_ShowsCacheStats(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	retrievalService.(*mockRetrievalService).stats = domain.CacheStats{
		Size: 4, Capacity: 100, Hits: 3, Misses: 1,
	}

	out, err := executeCommand("status")

	require.NoError(t, err)
	assert.Contains(t, out, "4/100 entries")
	assert.Contains(t, out, "75% hit rate")
}

func TestStatusCmd_Detailed(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	ingestService.(*mockIngestService).status = &domain.IndexStatus{
		DocumentsIndexed: 2,
		TotalChunks:      7,
		LastUpdated:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		ChunkCounts: map[string]int{
			"notes/barolo.md":  4,
			"notes/chablis.md": 3,
		},
	}

	out, err := executeCommand("status", "--detailed")
	defer func() {
		statusDetailed = false
	}()

	require.NoError(t, err)
	assert.Contains(t, out, "notes/barolo.md (4 chunks)")
	assert.Contains(t, out, "notes/chablis.md (3 chunks)")
	assert.Contains(t, out, "2026-03-14")
}

func TestReconcileCmd_NoOrphans(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("reconcile")

	require.NoError(t, err)
	assert.Contains(t, out, "No orphaned vectors found.")
}

func TestReconcileCmd_RemovesOrphans(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	ingestService.(*mockIngestService).reconciled = 7

	out, err := executeCommand("reconcile")

	require.NoError(t, err)
	assert.Contains(t, out, "Removed 7 orphaned vector entries.")
}

func TestVersionCmd_Executes(t *testing.T) {
	out, err := executeCommand("version")

	require.NoError(t, err)
	assert.Contains(t, out, "vinsearch version")
}
