package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocumentJSON = `{
  "documentId": "os-notes",
  "parents": [
    {
      "id": "p1",
      "content": "Operating systems overview: processes, scheduling, and memory management basics.",
      "metadata": {"nextChunkId": "p2", "fileName": "os-notes.md", "fileType": "md", "language": "en", "totalChunksInDocument": 3}
    },
    {
      "id": "p2",
      "content": "Virtual memory uses paging to give each process its own address space.",
      "metadata": {"previousChunkId": "p1", "nextChunkId": "p3", "positionInDocument": 1, "fileName": "os-notes.md", "fileType": "md", "language": "en", "totalChunksInDocument": 3}
    },
    {
      "id": "p3",
      "content": "Page replacement policies decide which frame to evict under pressure.",
      "metadata": {"previousChunkId": "p2", "positionInDocument": 2, "fileName": "os-notes.md", "fileType": "md", "language": "en", "totalChunksInDocument": 3}
    }
  ],
  "children": [
    {"text": "processes and scheduling fundamentals", "parentId": "p1"},
    {"text": "virtual memory paging address space isolation", "parentId": "p2"},
    {"text": "page replacement evicts frames under memory pressure", "parentId": "p3"}
  ]
}`

// testWorkspace writes a config (static embeddings, unreachable oracle)
// and one document file into a temp dir.
func testWorkspace(t *testing.T) (dir, docPath string) {
	t.Helper()
	dir = t.TempDir()

	cfgYAML := "embeddings:\n  provider: static\noracle:\n  host: http://127.0.0.1:1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rag.yaml"), []byte(cfgYAML), 0o644))

	docPath = filepath.Join(dir, "os-notes.json")
	require.NoError(t, os.WriteFile(docPath, []byte(testDocumentJSON), 0o644))
	return dir, docPath
}

func TestLoadDocumentFile_Valid(t *testing.T) {
	_, docPath := testWorkspace(t)

	doc, err := loadDocumentFile(docPath)
	require.NoError(t, err)

	assert.Equal(t, "os-notes", doc.DocumentID)
	require.Len(t, doc.Parents, 3)
	require.Len(t, doc.Children, 3)
	assert.Equal(t, "p2", doc.Children[1].ParentID)
	assert.Equal(t, "p1", doc.Parents[1].Metadata.PreviousChunkID)
}

func TestLoadDocumentFile_MissingDocumentID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"children": []}`), 0o644))

	_, err := loadDocumentFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "documentId is required")
}

func TestLoadDocumentFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := loadDocumentFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadDocumentFile_MissingFile(t *testing.T) {
	_, err := loadDocumentFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}
