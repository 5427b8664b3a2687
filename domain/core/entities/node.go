package entities

import (
	"fmt"
	"time"

	"canvas-engine/domain/core/valueobjects"
	pkgerrors "canvas-engine/pkg/errors"
)

// NodeType classifies a node on the canvas
type NodeType string

const (
	// TypeNote is a markdown note node
	TypeNote NodeType = "note"
	// TypeChat is a conversation node carrying an ordered message list
	TypeChat NodeType = "chat"
	// TypeCluster is a synthetic node standing in for several real nodes at
	// low zoom. Cluster nodes are redrawn each frame and never persisted.
	TypeCluster NodeType = "cluster"
)

// ChatMessage is a single message inside a chat node
type ChatMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// Node is a positioned rectangular entity on the canvas.
// Fields are exported: the node is a data-plumbing record copied between the
// store, the render pipeline and the layout engine, not a guarded aggregate.
type Node struct {
	ID     valueobjects.NodeID
	Type   NodeType
	Parent valueobjects.ScopeID

	// Geometry: world coordinates of the top-left corner. Width/Height are
	// normalized to engine defaults at ingestion and are always positive for
	// persisted nodes.
	X      float64
	Y      float64
	Width  float64
	Height float64

	Content  valueobjects.NodeContent
	Messages []ChatMessage
	Link     string
	Color    string

	// Cluster-only fields, set on synthetic TypeCluster nodes
	ClusterCount int
	ClusterIDs   []valueobjects.NodeID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewNode creates a note or chat node at the given position
func NewNode(nodeType NodeType, parent valueobjects.ScopeID, x, y, width, height float64) (*Node, error) {
	if nodeType != TypeNote && nodeType != TypeChat {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("cannot create node of type %q", nodeType))
	}
	if width <= 0 || height <= 0 {
		return nil, pkgerrors.NewValidationError("node dimensions must be positive")
	}

	now := time.Now()
	return &Node{
		ID:        valueobjects.NewNodeID(),
		Type:      nodeType,
		Parent:    parent,
		X:         x,
		Y:         y,
		Width:     width,
		Height:    height,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewClusterNode creates a synthetic cluster node. The id is derived from the
// seed member so that repeated clustering passes over the same membership
// produce the same id.
func NewClusterNode(seed valueobjects.NodeID, centroid valueobjects.Point, members []valueobjects.NodeID, size float64) (*Node, error) {
	if len(members) == 0 {
		return nil, pkgerrors.NewValidationError("cluster must have at least one member")
	}

	id, err := valueobjects.NewNodeIDFromString("cluster-" + seed.String())
	if err != nil {
		return nil, err
	}

	ids := make([]valueobjects.NodeID, len(members))
	copy(ids, members)

	return &Node{
		ID:           id,
		Type:         TypeCluster,
		X:            centroid.X - size/2,
		Y:            centroid.Y - size/2,
		Width:        size,
		Height:       size,
		ClusterCount: len(ids),
		ClusterIDs:   ids,
	}, nil
}

// IsCluster reports whether this is a synthetic cluster node
func (n *Node) IsCluster() bool {
	return n.Type == TypeCluster
}

// Persistable reports whether the node may be written by a save path.
// Synthetic cluster nodes are filtered out of every persistence flow.
func (n *Node) Persistable() bool {
	return n.Type != TypeCluster
}

// Position returns the node's top-left corner
func (n *Node) Position() valueobjects.Point {
	return valueobjects.Point{X: n.X, Y: n.Y}
}

// Center returns the node's center point
func (n *Node) Center() valueobjects.Point {
	return valueobjects.Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
}

// Bounds returns the node's bounding rectangle
func (n *Node) Bounds() valueobjects.Rect {
	return valueobjects.NewRect(n.X, n.Y, n.Width, n.Height)
}

// HasFinitePosition reports whether the node's coordinates are usable.
// Corrupt geometry degrades to skipping the node, never to a failed frame.
func (n *Node) HasFinitePosition() bool {
	return n.Position().IsFinite()
}

// MoveTo places the node's top-left corner at the given position
func (n *Node) MoveTo(x, y float64) {
	n.X = x
	n.Y = y
	n.UpdatedAt = time.Now()
}

// Resize sets the node's dimensions, which must stay positive
func (n *Node) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return pkgerrors.NewValidationError("node dimensions must be positive")
	}
	n.Width = width
	n.Height = height
	n.UpdatedAt = time.Now()
	return nil
}

// UpdateContent replaces the node's content
func (n *Node) UpdateContent(content valueobjects.NodeContent) {
	n.Content = content
	n.UpdatedAt = time.Now()
}

// AppendMessage appends a chat message; valid only on chat nodes
func (n *Node) AppendMessage(msg ChatMessage) error {
	if n.Type != TypeChat {
		return pkgerrors.NewValidationError("messages can only be appended to chat nodes")
	}
	n.Messages = append(n.Messages, msg)
	n.UpdatedAt = time.Now()
	return nil
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	dup := *n
	if n.Messages != nil {
		dup.Messages = make([]ChatMessage, len(n.Messages))
		copy(dup.Messages, n.Messages)
	}
	if n.ClusterIDs != nil {
		dup.ClusterIDs = make([]valueobjects.NodeID, len(n.ClusterIDs))
		copy(dup.ClusterIDs, n.ClusterIDs)
	}
	return &dup
}
