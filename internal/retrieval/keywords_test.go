package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{
			name: "short tokens dropped",
			text: "What is RAM?",
			max:  3,
			want: []string{},
		},
		{
			name: "stop words dropped",
			text: "Please explain how virtual memory works",
			max:  3,
			want: []string{"virtual", "memory", "works"},
		},
		{
			name: "cap respected",
			text: "kernel scheduler preemption latency throughput",
			max:  3,
			want: []string{"kernel", "scheduler", "preemption"},
		},
		{
			name: "duplicates collapsed",
			text: "memory memory MEMORY allocation",
			max:  3,
			want: []string{"memory", "allocation"},
		},
		{
			name: "punctuation split",
			text: "garbage-collection pauses, heap fragmentation!",
			max:  4,
			want: []string{"garbage", "collection", "pauses", "heap"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.text, tt.max)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveFilters(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no cues", func(t *testing.T) {
		assert.Nil(t, DeriveFilters("how does paging work", now))
	})

	t.Run("file type cue", func(t *testing.T) {
		f := DeriveFilters("summarize the PDF report", now)
		require.NotNil(t, f)
		assert.Equal(t, "pdf", f.FileType)
	})

	t.Run("language cue", func(t *testing.T) {
		f := DeriveFilters("find the german translation notes", now)
		require.NotNil(t, f)
		assert.Equal(t, "de", f.Language)
	})

	t.Run("recency cue", func(t *testing.T) {
		f := DeriveFilters("what changed in the latest release notes", now)
		require.NotNil(t, f)
		assert.Equal(t, now.Add(-recencyWindow), f.CreatedAfter)
	})

	t.Run("detail cue", func(t *testing.T) {
		f := DeriveFilters("give a detailed architecture overview", now)
		require.NotNil(t, f)
		assert.Equal(t, int64(detailMinSize), f.MinSize)
	})

	t.Run("combined cues", func(t *testing.T) {
		f := DeriveFilters("recent pdf documents in english", now)
		require.NotNil(t, f)
		assert.Equal(t, "pdf", f.FileType)
		assert.Equal(t, "en", f.Language)
		assert.False(t, f.CreatedAfter.IsZero())
	})
}
