package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/engine"
	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/retrieval"
)

// runRoot executes the root command with args and captures its output.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestAnswerCmd_EndToEnd(t *testing.T) {
	// Given: a workspace with static embeddings and an unreachable oracle
	dir, docPath := testWorkspace(t)

	// When: answering a question over an ingested document
	output, err := runRoot(t,
		"--config", dir,
		"answer", "--documents", docPath, "--json",
		"How does virtual memory paging work?")

	// Then: a degraded but sourced answer comes back
	require.NoError(t, err)

	var answer engine.Answer
	require.NoError(t, json.Unmarshal([]byte(output), &answer))

	assert.True(t, answer.Fallback, "unreachable oracle serves an excerpt")
	assert.NotEmpty(t, answer.Text)
	assert.NotEmpty(t, answer.Sources)
	assert.Equal(t, retrieval.MethodHierarchical, answer.RetrievalMethod)
}

func TestAnswerCmd_FormattedOutput(t *testing.T) {
	dir, docPath := testWorkspace(t)

	output, err := runRoot(t,
		"--config", dir,
		"answer", "--documents", docPath, "--sources",
		"How does virtual memory paging work?")

	require.NoError(t, err)
	assert.Contains(t, output, "Retrieval:")
	assert.Contains(t, output, "Confidence:")
	assert.Contains(t, output, "Sources:")
}

func TestAnswerCmd_MissingDocumentFile(t *testing.T) {
	dir, _ := testWorkspace(t)

	_, err := runRoot(t,
		"--config", dir,
		"answer", "--documents", "does-not-exist.json",
		"anything?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestAnswerCmd_RequiresQuestion(t *testing.T) {
	dir, _ := testWorkspace(t)

	_, err := runRoot(t, "--config", dir, "answer")
	require.Error(t, err)
}
