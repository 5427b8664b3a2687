package services

import (
	"strconv"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"canvas-engine/application/ports"
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/aggregates"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/services/layout"
	pkgerrors "canvas-engine/pkg/errors"
	"canvas-engine/pkg/notify"
)

// NodeUpdater is the functional-update form of a node collection mutation
type NodeUpdater func(prev []*entities.Node) []*entities.Node

// EdgeUpdater is the functional-update form of an edge collection mutation
type EdgeUpdater func(prev []*entities.Edge) []*entities.Edge

// pendingDelete holds a soft-deleted batch during its grace window
type pendingDelete struct {
	nodes []*entities.Node
	edges []*entities.Edge
	timer *time.Timer
}

// GraphStore is the single owner of the node/edge working set. Every
// mutation funnels through it: gesture deltas, expansion results, viewport
// fetches and deletions all apply as read-modify-write against the current
// state under one lock, so overlapping async completions merge instead of
// clobbering each other.
type GraphStore struct {
	mu sync.Mutex

	nodes    []*entities.Node
	edges    []*entities.Edge
	snapshot *aggregates.Graph

	scope     valueobjects.ScopeID
	transform valueobjects.Transform
	selection map[string]bool

	dirty          map[string]ports.DirtyKind
	pendingDeletes map[string]*pendingDelete

	cfg      *config.EngineConfig
	layout   *layout.Engine
	sink     ports.DirtySink
	notifier *notify.Notifier
	logger   *zap.Logger

	// Debounced collision resolution coalesces insert bursts into one pass.
	collisionDebounce func(func())
}

// NewGraphStore creates a store over empty collections
func NewGraphStore(
	cfg *config.EngineConfig,
	layoutEngine *layout.Engine,
	sink ports.DirtySink,
	notifier *notify.Notifier,
	logger *zap.Logger,
) *GraphStore {
	return &GraphStore{
		snapshot:          aggregates.NewGraph(nil, nil),
		transform:         valueobjects.IdentityTransform(),
		selection:         make(map[string]bool),
		dirty:             make(map[string]ports.DirtyKind),
		pendingDeletes:    make(map[string]*pendingDelete),
		cfg:               cfg,
		layout:            layoutEngine,
		sink:              sink,
		notifier:          notifier,
		logger:            logger,
		collisionDebounce: debounce.New(cfg.CollisionDebounce),
	}
}

// ApplyConfig copies reloaded tuning values into the shared engine
// configuration. All services hold the same instance, so the new values take
// effect on their next pass.
func (s *GraphStore) ApplyConfig(next *config.EngineConfig) {
	if next == nil || next.Validate() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.cfg = *next
}

// Snapshot returns the current working-set read model
func (s *GraphStore) Snapshot() *aggregates.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Scope returns the current scope
func (s *GraphStore) Scope() valueobjects.ScopeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// SetScope switches the current scope and clears the selection
func (s *GraphStore) SetScope(scope valueobjects.ScopeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = scope
	s.selection = make(map[string]bool)
}

// Transform returns the current viewport transform
func (s *GraphStore) Transform() valueobjects.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// SetTransform replaces the viewport transform; invalid zooms are ignored
func (s *GraphStore) SetTransform(t valueobjects.Transform) {
	if !t.IsValid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transform = t
}

// Select adds a node to the selection. Without multi mode the selection is
// replaced; with it, the node toggles.
func (s *GraphStore) Select(id valueobjects.NodeID, multi bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !multi {
		s.selection = map[string]bool{id.String(): true}
		return
	}
	if s.selection[id.String()] {
		delete(s.selection, id.String())
	} else {
		s.selection[id.String()] = true
	}
}

// ClearSelection empties the selection set
func (s *GraphStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = make(map[string]bool)
}

// IsSelected reports whether the node is selected
func (s *GraphStore) IsSelected(id valueobjects.NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection[id.String()]
}

// SelectedIDs returns the current selection as a list
func (s *GraphStore) SelectedIDs() []valueobjects.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]valueobjects.NodeID, 0, len(s.selection))
	for id := range s.selection {
		nodeID, err := valueobjects.NewNodeIDFromString(id)
		if err == nil {
			out = append(out, nodeID)
		}
	}
	return out
}

// SetNodes applies a functional update to the node collection. The updater
// runs against the latest state under the store lock, so concurrent async
// completions always see each other's writes.
func (s *GraphStore) SetNodes(updater NodeUpdater) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := updater(s.nodes)
	s.applyNodesLocked(next)
}

// ReplaceNodes applies a full-array replacement. The replacement is merged
// by id: unchanged nodes keep their current instances and only nodes whose
// content or geometry actually differ are marked dirty.
func (s *GraphStore) ReplaceNodes(next []*entities.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyNodesLocked(next)
}

// SetEdges applies a functional update to the edge collection
func (s *GraphStore) SetEdges(updater EdgeUpdater) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = updater(s.edges)
	s.rebuildLocked()
}

// applyNodesLocked merges the incoming collection into the working set,
// computing per-node dirty kinds. Synthetic cluster nodes never enter the
// stored collection.
func (s *GraphStore) applyNodesLocked(next []*entities.Node) {
	prevByID := make(map[string]*entities.Node, len(s.nodes))
	for _, n := range s.nodes {
		prevByID[n.ID.String()] = n
	}

	merged := make([]*entities.Node, 0, len(next))
	grew := false
	for _, n := range next {
		if n == nil || !n.Persistable() {
			continue
		}
		prev, existed := prevByID[n.ID.String()]
		if !existed {
			merged = append(merged, n)
			s.dirty[n.ID.String()] = ports.DirtyContent
			grew = true
			continue
		}
		if prev == n {
			merged = append(merged, prev)
			continue
		}
		merged = append(merged, n)
		if kind, changed := diffNode(prev, n); changed {
			s.markDirtyLocked(n.ID.String(), kind)
		}
	}

	s.nodes = merged
	s.rebuildLocked()

	if grew {
		s.scheduleCollisionResolveLocked(valueobjects.NodeID{})
	}
}

// markDirtyLocked records a dirty kind, never downgrading content to position
func (s *GraphStore) markDirtyLocked(id string, kind ports.DirtyKind) {
	if existing, ok := s.dirty[id]; ok && existing == ports.DirtyContent && kind == ports.DirtyPosition {
		return
	}
	s.dirty[id] = kind
}

// diffNode classifies the difference between two revisions of a node
func diffNode(prev, next *entities.Node) (ports.DirtyKind, bool) {
	if !prev.Content.Equals(next.Content) ||
		prev.Link != next.Link ||
		prev.Color != next.Color ||
		!sameMessages(prev.Messages, next.Messages) {
		return ports.DirtyContent, true
	}
	if prev.X != next.X || prev.Y != next.Y ||
		prev.Width != next.Width || prev.Height != next.Height {
		return ports.DirtyPosition, true
	}
	return ports.DirtyPosition, false
}

// sameMessages compares chat transcripts message by message: an in-place
// edit changes content without changing the count.
func sameMessages(a, b []entities.ChatMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Role != b[i].Role || a[i].Content != b[i].Content {
			return false
		}
	}
	return true
}

func (s *GraphStore) rebuildLocked() {
	s.snapshot = aggregates.NewGraph(s.nodes, s.edges)
}

// AddNode inserts a node and schedules a debounced collision pass
func (s *GraphStore) AddNode(n *entities.Node) {
	if n == nil || !n.Persistable() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, n)
	s.dirty[n.ID.String()] = ports.DirtyContent
	s.rebuildLocked()
	s.scheduleCollisionResolveLocked(valueobjects.NodeID{})
}

// AddEdge inserts an edge unless the same ordered pair is already connected
func (s *GraphStore) AddEdge(e *entities.Edge) error {
	if e == nil {
		return pkgerrors.NewValidationError("edge cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.edges {
		if existing.SamePair(e) {
			return pkgerrors.NewConflictError("edge already exists")
		}
	}
	s.edges = append(s.edges, e)
	s.rebuildLocked()
	return nil
}

// MoveNode updates a node's position in place (live drag path)
func (s *GraphStore) MoveNode(id valueobjects.NodeID, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.snapshot.NodeByID(id)
	if !ok {
		return
	}
	n.MoveTo(x, y)
	s.markDirtyLocked(id.String(), ports.DirtyPosition)
}

// SetNodeGeometry updates position and size together (resize path)
func (s *GraphStore) SetNodeGeometry(id valueobjects.NodeID, x, y, width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.snapshot.NodeByID(id)
	if !ok {
		return
	}
	n.MoveTo(x, y)
	if err := n.Resize(width, height); err != nil {
		return
	}
	s.markDirtyLocked(id.String(), ports.DirtyPosition)
}

// UpdateNodeContent replaces a node's content and marks it content-dirty
func (s *GraphStore) UpdateNodeContent(id valueobjects.NodeID, content valueobjects.NodeContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.snapshot.NodeByID(id)
	if !ok {
		return
	}
	n.UpdateContent(content)
	s.markDirtyLocked(id.String(), ports.DirtyContent)
}

// ResolveCollisionsPinned runs the collision pass for the current scope
// immediately, holding the given node fixed. Used on drag/resize end.
func (s *GraphStore) ResolveCollisionsPinned(pinned valueobjects.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout.ResolveCollisions(
		s.snapshot.NodesInScope(s.scope),
		s.snapshot.EdgesInScope(s.scope),
		pinned,
	)
	for _, n := range s.snapshot.NodesInScope(s.scope) {
		s.markDirtyLocked(n.ID.String(), ports.DirtyPosition)
	}
}

// RunFullLayout recomputes the current scope's positions from scratch
func (s *GraphStore) RunFullLayout(kind layout.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout.FullLayout(kind, s.snapshot.NodesInScope(s.scope), s.snapshot.EdgesInScope(s.scope))
	for _, n := range s.snapshot.NodesInScope(s.scope) {
		s.markDirtyLocked(n.ID.String(), ports.DirtyPosition)
	}
}

// scheduleCollisionResolveLocked coalesces bursts of insertions into a
// single resolve pass a short delay later.
func (s *GraphStore) scheduleCollisionResolveLocked(pinned valueobjects.NodeID) {
	s.collisionDebounce(func() {
		s.ResolveCollisionsPinned(pinned)
	})
}

// DeleteNodes soft-deletes the given nodes and their incident edges. The
// removal is applied in memory immediately; the persistent delete commits
// only after the grace window passes without an undo. The returned token
// addresses the pending batch; the pushed notification carries the undo.
func (s *GraphStore) DeleteNodes(ids []valueobjects.NodeID) string {
	if len(ids) == 0 {
		return ""
	}

	s.mu.Lock()
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id.String()] = true
	}

	var removedNodes []*entities.Node
	keptNodes := make([]*entities.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if doomed[n.ID.String()] {
			removedNodes = append(removedNodes, n)
		} else {
			keptNodes = append(keptNodes, n)
		}
	}
	if len(removedNodes) == 0 {
		s.mu.Unlock()
		return ""
	}

	var removedEdges []*entities.Edge
	keptEdges := make([]*entities.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		if doomed[e.Source.String()] || doomed[e.Target.String()] {
			removedEdges = append(removedEdges, e)
		} else {
			keptEdges = append(keptEdges, e)
		}
	}

	s.nodes = keptNodes
	s.edges = keptEdges
	for _, n := range removedNodes {
		delete(s.selection, n.ID.String())
	}
	s.rebuildLocked()

	token := uuid.New().String()
	pending := &pendingDelete{nodes: removedNodes, edges: removedEdges}
	pending.timer = time.AfterFunc(s.cfg.DeleteGraceWindow, func() {
		s.commitDelete(token)
	})
	s.pendingDeletes[token] = pending
	s.mu.Unlock()

	s.notifier.Push(notify.LevelInfo, deleteMessage(len(removedNodes)), &notify.Action{
		Label: "Undo",
		Run:   func() { s.UndoDelete(token) },
	})

	s.logger.Info("nodes soft-deleted",
		zap.Int("nodes", len(removedNodes)),
		zap.Int("edges", len(removedEdges)),
		zap.String("token", token),
	)
	return token
}

// UndoDelete restores a pending delete batch in full — nodes and edges
// together, all or nothing — and cancels the persistent delete.
func (s *GraphStore) UndoDelete(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pendingDeletes[token]
	if !ok {
		return false
	}
	pending.timer.Stop()
	delete(s.pendingDeletes, token)

	s.nodes = append(s.nodes, pending.nodes...)
	s.edges = append(s.edges, pending.edges...)
	s.rebuildLocked()

	s.logger.Info("delete undone", zap.String("token", token))
	return true
}

// commitDelete finishes a soft delete once the grace window elapses
func (s *GraphStore) commitDelete(token string) {
	s.mu.Lock()
	pending, ok := s.pendingDeletes[token]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pendingDeletes, token)

	entries := make([]ports.DirtyEntry, 0, len(pending.nodes)+len(pending.edges))
	for _, n := range pending.nodes {
		delete(s.dirty, n.ID.String())
		entries = append(entries, ports.DirtyEntry{NodeID: n.ID, Kind: ports.DirtyDeleted})
	}
	for _, e := range pending.edges {
		entries = append(entries, ports.DirtyEntry{EdgeID: e.ID, Kind: ports.DirtyDeleted})
	}
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.ReportDirty(entries)
	}
}

// FlushDirty reports accumulated changes to the persistence sink and clears
// the tracker. Called by the external debounced-save pipeline.
func (s *GraphStore) FlushDirty() []ports.DirtyEntry {
	s.mu.Lock()
	entries := make([]ports.DirtyEntry, 0, len(s.dirty))
	for id, kind := range s.dirty {
		nodeID, err := valueobjects.NewNodeIDFromString(id)
		if err != nil {
			continue
		}
		// A node deleted while dirty has nothing to flush.
		if _, ok := s.snapshot.NodeByID(nodeID); !ok {
			continue
		}
		entries = append(entries, ports.DirtyEntry{NodeID: nodeID, Kind: kind})
	}
	s.dirty = make(map[string]ports.DirtyKind)
	s.mu.Unlock()

	if s.sink != nil && len(entries) > 0 {
		s.sink.ReportDirty(entries)
	}
	return entries
}

func deleteMessage(count int) string {
	if count == 1 {
		return "Deleted 1 node"
	}
	return "Deleted " + strconv.Itoa(count) + " nodes"
}
