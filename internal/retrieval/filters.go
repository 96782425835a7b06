package retrieval

import (
	"strings"
	"time"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/vector"
)

// Filter derivation constants.
const (
	// recencyWindow is how far back "recent" reaches.
	recencyWindow = 90 * 24 * time.Hour

	// detailMinSize is the minimum file size implied by depth cues.
	detailMinSize = 1024
)

var fileTypeCues = []struct {
	cue      string
	fileType string
}{
	{"pdf", "pdf"},
	{"markdown", "md"},
	{"text file", "txt"},
	{"spreadsheet", "xlsx"},
	{"word document", "docx"},
}

var languageCues = []struct {
	cue      string
	language string
}{
	{"english", "en"},
	{"german", "de"},
	{"french", "fr"},
	{"spanish", "es"},
	{"hindi", "hi"},
}

var recencyCues = []string{"recent", "latest", "newest", "this week", "this month", "today"}

var detailCues = []string{"detailed", "comprehensive", "in-depth", "in depth", "thorough"}

// DeriveFilters inspects the question for lexical cues and builds
// metadata filters for the fourth retrieval strategy. Returns nil when
// no cue is found, which disables the strategy for this query.
func DeriveFilters(question string, now time.Time) *vector.SearchFilters {
	q := strings.ToLower(question)

	var filters vector.SearchFilters
	for _, c := range fileTypeCues {
		if strings.Contains(q, c.cue) {
			filters.FileType = c.fileType
			break
		}
	}
	for _, c := range languageCues {
		if strings.Contains(q, c.cue) {
			filters.Language = c.language
			break
		}
	}
	for _, cue := range recencyCues {
		if strings.Contains(q, cue) {
			filters.CreatedAfter = now.Add(-recencyWindow)
			break
		}
	}
	for _, cue := range detailCues {
		if strings.Contains(q, cue) {
			filters.MinSize = detailMinSize
			break
		}
	}

	if !filters.Active() {
		return nil
	}
	return &filters
}
