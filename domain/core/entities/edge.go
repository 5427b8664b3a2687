package entities

import (
	"time"

	"github.com/google/uuid"

	"canvas-engine/domain/core/valueobjects"
	pkgerrors "canvas-engine/pkg/errors"
)

// Edge is a directed relationship between two nodes. An edge renders only
// when both endpoints resolve to visible nodes in the same scope; a dangling
// endpoint drops the edge from the render set, never from the stored model.
type Edge struct {
	ID     string
	Source valueobjects.NodeID
	Target valueobjects.NodeID
	Label  string
	Parent valueobjects.ScopeID

	CreatedAt time.Time
}

// NewEdge creates an edge between two distinct nodes
func NewEdge(source, target valueobjects.NodeID, label string, parent valueobjects.ScopeID) (*Edge, error) {
	if source.IsZero() || target.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if source.Equals(target) {
		return nil, pkgerrors.NewValidationError("cannot connect node to itself")
	}

	return &Edge{
		ID:        uuid.New().String(),
		Source:    source,
		Target:    target,
		Label:     label,
		Parent:    parent,
		CreatedAt: time.Now(),
	}, nil
}

// Touches reports whether the edge references the given node id
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.Source.Equals(id) || e.Target.Equals(id)
}

// SamePair reports whether another edge connects the same ordered pair.
// Used to suppress duplicate edges on connect-gesture completion.
func (e *Edge) SamePair(other *Edge) bool {
	return e.Source.Equals(other.Source) && e.Target.Equals(other.Target)
}

// Clone returns a copy of the edge
func (e *Edge) Clone() *Edge {
	dup := *e
	return &dup
}
