package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestCmd_ReportsIndexedChunks(t *testing.T) {
	// Given: a workspace with one three-chunk document
	dir, docPath := testWorkspace(t)

	// When: ingesting it
	output, err := runRoot(t, "--config", dir, "ingest", docPath)

	// Then: the report shows all chunks indexed in one batch
	require.NoError(t, err)
	assert.Contains(t, output, "os-notes: 3 chunks indexed, 0 failed")
	assert.Contains(t, output, "1/1 batches completed")
}

func TestIngestCmd_JSONOutput(t *testing.T) {
	dir, docPath := testWorkspace(t)

	output, err := runRoot(t, "--config", dir, "ingest", docPath, "--json")
	require.NoError(t, err)

	var results []struct {
		DocumentID    string `json:"documentId"`
		IndexedChunks int    `json:"indexedChunks"`
		FailedChunks  int    `json:"failedChunks"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "os-notes", results[0].DocumentID)
	assert.Equal(t, 3, results[0].IndexedChunks)
	assert.Equal(t, 0, results[0].FailedChunks)
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	dir, _ := testWorkspace(t)

	_, err := runRoot(t, "--config", dir, "ingest")
	require.Error(t, err)
}
