// Package ports defines the engine's contracts with its collaborators. The
// core is a library surface, not a network service: persistence, AI text
// generation and Wikidata lookups all live behind these interfaces, and the
// engine only ever sees their data shapes.
package ports

import (
	"context"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// ExpansionNode is one suggested node from the AI expansion collaborator.
// The shape is structural only; the engine normalizes defensively at the
// ingestion boundary and never trusts semantic correctness.
type ExpansionNode struct {
	Name        string `validate:"required"`
	Description string
	WikiLink    string
}

// ExpansionEdge is one suggested relationship from the expansion collaborator
type ExpansionEdge struct {
	TargetName   string `validate:"required"`
	Relationship string
}

// ExpansionResult is the collaborator's full response for one topic
type ExpansionResult struct {
	Nodes     []ExpansionNode
	Edges     []ExpansionEdge
	MainTopic string
}

// Expander generates graph expansions for a topic. A quota/rate exhaustion
// must surface as a pkg/errors rate-limit error so callers can distinguish
// it from generic failures.
type Expander interface {
	Expand(ctx context.Context, topic string, contextLabels []string) (*ExpansionResult, error)
}

// Subtopic is a single Wikidata subtopic suggestion
type Subtopic struct {
	Label       string
	Description string
	WikidataURL string
}

// SubtopicQuery parameterizes a subtopic lookup
type SubtopicQuery struct {
	Language    string
	ResultLimit int
}

// SubtopicSource fetches related subtopics for a topic. An empty result is a
// valid "nothing found", not an error.
type SubtopicSource interface {
	Subtopics(ctx context.Context, topic string, query SubtopicQuery) ([]Subtopic, error)
}

// DirtyKind distinguishes what changed about a node since the last flush
type DirtyKind int

const (
	// DirtyPosition marks a move/resize-only change
	DirtyPosition DirtyKind = iota
	// DirtyContent marks a semantic content change (may re-embed downstream)
	DirtyContent
	// DirtyDeleted marks a committed deletion
	DirtyDeleted
)

// DirtyEntry reports one changed entity to the persistence pipeline
type DirtyEntry struct {
	NodeID valueobjects.NodeID
	EdgeID string
	Kind   DirtyKind
}

// DirtySink receives change reports for the external debounced-save
// pipeline. The engine never persists directly.
type DirtySink interface {
	ReportDirty(entries []DirtyEntry)
}

// NavigationEvents receives scope and selection events for chrome outside
// the core (breadcrumbs, menus).
type NavigationEvents interface {
	ScopeEntered(scope valueobjects.ScopeID)
	ScopeExited(scope valueobjects.ScopeID)
	Selected(id valueobjects.NodeID, multi bool)
	FocusRequested(id valueobjects.NodeID)
}

// GraphFetcher loads node/edge pages for server-backed graphs on viewport
// changes. Implementations must honor context cancellation.
type GraphFetcher interface {
	FetchRegion(ctx context.Context, scope valueobjects.ScopeID, region valueobjects.Rect) ([]*entities.Node, []*entities.Edge, error)
}
