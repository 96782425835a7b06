// Package assemble builds the narrative context window: the top
// parent chunk stitched together with its linked-list neighbors from
// the same source document.
package assemble

import (
	"log/slog"
	"strings"

	"github.com/sanjibRanjan/RAG-pipeline-sub002/internal/store"
)

// Section labels in the assembled context.
const (
	labelPrevious  = "[Previous]"
	labelMain      = "[Main]"
	labelFollowing = "[Following]"
)

// Result is the assembled context with observability metadata.
type Result struct {
	Context string

	// PrimaryLength and AssembledLength feed the expansion ratio.
	PrimaryLength   int
	AssembledLength int

	// ExpansionRatio is AssembledLength / PrimaryLength.
	ExpansionRatio float64

	// UsedPrevious and UsedNext report which neighbors were stitched.
	UsedPrevious bool
	UsedNext     bool

	// Skipped marks a pass-through when assembly is disabled.
	Skipped bool
}

// Assembler stitches neighbor chunks through the hierarchy store.
type Assembler struct {
	store   *store.HierarchyStore
	enabled bool
}

// NewAssembler creates an assembler. When disabled, Assemble returns
// the primary content verbatim.
func NewAssembler(s *store.HierarchyStore, enabled bool) *Assembler {
	return &Assembler{store: s, enabled: enabled}
}

// Assemble expands the top-ranked parent with up to one neighbor in
// each direction. Missing or cross-document neighbors are silently
// omitted.
func (a *Assembler) Assemble(top *store.ParentChunk) *Result {
	if top == nil {
		return &Result{}
	}

	primary := top.Content
	if !a.enabled || a.store == nil {
		return &Result{
			Context:         primary,
			PrimaryLength:   len(primary),
			AssembledLength: len(primary),
			ExpansionRatio:  1.0,
			Skipped:         true,
		}
	}

	var sections []string
	result := &Result{PrimaryLength: len(primary)}

	if prevID := top.Metadata.PreviousChunkID; prevID != "" {
		if prev, ok := a.store.GetSameDocument(prevID, top.DocumentID); ok {
			sections = append(sections, labelPrevious+"\n"+prev.Content)
			result.UsedPrevious = true
		}
	}

	sections = append(sections, labelMain+"\n"+primary)

	if nextID := top.Metadata.NextChunkID; nextID != "" {
		if next, ok := a.store.GetSameDocument(nextID, top.DocumentID); ok {
			sections = append(sections, labelFollowing+"\n"+next.Content)
			result.UsedNext = true
		}
	}

	result.Context = strings.Join(sections, "\n\n")
	result.AssembledLength = len(result.Context)
	if result.PrimaryLength > 0 {
		result.ExpansionRatio = float64(result.AssembledLength) / float64(result.PrimaryLength)
	}

	slog.Debug("context_assembled",
		slog.String("parent_id", top.ID),
		slog.Bool("used_previous", result.UsedPrevious),
		slog.Bool("used_next", result.UsedNext),
		slog.Float64("expansion_ratio", result.ExpansionRatio))
	return result
}
