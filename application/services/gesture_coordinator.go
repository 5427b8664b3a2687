package services

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"canvas-engine/application/ports"
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	pkgerrors "canvas-engine/pkg/errors"
)

// Mode is the active pointer-driven gesture. Modes are mutually exclusive:
// at most one of the node-level gestures (drag, resize, connect) runs at a
// time, and pan/zoom is suppressed while any of them is active.
type Mode string

const (
	ModeIdle          Mode = "idle"
	ModePanZoom       Mode = "pan_zoom"
	ModeDragging      Mode = "dragging_node"
	ModeResizing      Mode = "resizing_node"
	ModeConnecting    Mode = "connecting_edge"
	ModeTextSelecting Mode = "text_selecting"
)

// Handle identifies which resize handle was grabbed
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Origin classifies where a pan/zoom gesture started
type Origin string

const (
	OriginCanvas Origin = "canvas"
	OriginNode   Origin = "node"
	OriginChrome Origin = "chrome" // inputs, buttons, links
)

// SelectionAffordance is the floating action context produced by a finished
// text selection: create a connected note or chat, or seed an expansion.
type SelectionAffordance struct {
	Text     string
	AnchorID valueobjects.NodeID // node the selection originated in, if any
	At       valueobjects.Point  // screen position for the affordance
}

// gestureState is the per-gesture scratch captured at gesture start
type gestureState struct {
	nodeID      valueobjects.NodeID
	handle      Handle
	startScreen valueobjects.Point
	startX      float64
	startY      float64
	startWidth  float64
	startHeight float64
}

// GestureCoordinator is the single source of truth for which pointer mode is
// active. The mode is read and written synchronously under a lock at gesture
// boundaries — gesture dispatch happens before any batched state update
// would commit, so exclusivity decisions must never read stale flags.
type GestureCoordinator struct {
	mu    sync.Mutex
	mode  Mode
	state gestureState

	connectSource  valueobjects.NodeID
	connectPointer valueobjects.Point
	affordance     *SelectionAffordance

	store  *GraphStore
	events ports.NavigationEvents
	cfg    *config.EngineConfig
	logger *zap.Logger
}

// NewGestureCoordinator creates the coordinator over the store
func NewGestureCoordinator(store *GraphStore, events ports.NavigationEvents, cfg *config.EngineConfig, logger *zap.Logger) *GestureCoordinator {
	return &GestureCoordinator{
		mode:   ModeIdle,
		store:  store,
		events: events,
		cfg:    cfg,
		logger: logger,
	}
}

// Mode returns the currently active gesture mode
func (g *GestureCoordinator) Mode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// nodeGestureActiveLocked reports whether a node-level gesture holds the canvas
func (g *GestureCoordinator) nodeGestureActiveLocked() bool {
	return g.mode == ModeDragging || g.mode == ModeResizing || g.mode == ModeConnecting
}

// AllowPanZoom decides whether a pan/zoom gesture may start. Zoom-intent
// wheel events (wheel plus modifier key) pass everywhere; plain gestures are
// filtered out on interactive chrome and on nodes, and everything is
// suppressed while a node-level gesture is active.
func (g *GestureCoordinator) AllowPanZoom(origin Origin, zoomIntent bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allowPanZoomLocked(origin, zoomIntent)
}

func (g *GestureCoordinator) allowPanZoomLocked(origin Origin, zoomIntent bool) bool {
	if g.nodeGestureActiveLocked() {
		return false
	}
	if zoomIntent {
		return true
	}
	return origin == OriginCanvas
}

// Pan applies a screen-space pan delta to the viewport transform. The
// coordinator holds ModePanZoom until EndGesture releases it.
func (g *GestureCoordinator) Pan(dxScreen, dyScreen float64) {
	g.mu.Lock()
	if !g.allowPanZoomLocked(OriginCanvas, false) {
		g.mu.Unlock()
		return
	}
	g.mode = ModePanZoom
	g.mu.Unlock()

	t := g.store.Transform()
	t.X += dxScreen
	t.Y += dyScreen
	g.store.SetTransform(t)
}

// Zoom scales the viewport about the given screen point
func (g *GestureCoordinator) Zoom(factor float64, about valueobjects.Point) {
	if factor <= 0 {
		return
	}
	g.mu.Lock()
	if !g.allowPanZoomLocked(OriginCanvas, true) {
		g.mu.Unlock()
		return
	}
	g.mode = ModePanZoom
	g.mu.Unlock()

	t := g.store.Transform()
	nextK := clamp(t.K*factor, 0.01, 4)
	ratio := nextK / t.K
	g.store.SetTransform(valueobjects.Transform{
		X: about.X - (about.X-t.X)*ratio,
		Y: about.Y - (about.Y-t.Y)*ratio,
		K: nextK,
	})
}

// BeginNodeDrag starts dragging a node from its header. Fails while another
// node-level gesture is active.
func (g *GestureCoordinator) BeginNodeDrag(id valueobjects.NodeID, screen valueobjects.Point) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nodeGestureActiveLocked() {
		return pkgerrors.NewConflictError("another node gesture is active")
	}

	node, ok := g.store.Snapshot().NodeByID(id)
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}

	g.mode = ModeDragging
	g.state = gestureState{
		nodeID:      id,
		startScreen: screen,
		startX:      node.X,
		startY:      node.Y,
		startWidth:  node.Width,
		startHeight: node.Height,
	}
	return nil
}

// BeginResize starts resizing a node from the given handle
func (g *GestureCoordinator) BeginResize(id valueobjects.NodeID, handle Handle, screen valueobjects.Point) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nodeGestureActiveLocked() {
		return pkgerrors.NewConflictError("another node gesture is active")
	}

	node, ok := g.store.Snapshot().NodeByID(id)
	if !ok {
		return pkgerrors.NewNotFoundError("node")
	}

	g.mode = ModeResizing
	g.state = gestureState{
		nodeID:      id,
		handle:      handle,
		startScreen: screen,
		startX:      node.X,
		startY:      node.Y,
		startWidth:  node.Width,
		startHeight: node.Height,
	}
	return nil
}

// MovePointer feeds a pointer-move event to whichever gesture is active.
// Screen deltas scale by the inverse zoom into world units.
func (g *GestureCoordinator) MovePointer(screen valueobjects.Point) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.mode {
	case ModeDragging:
		dx, dy := g.worldDeltaLocked(screen)
		g.store.MoveNode(g.state.nodeID, g.state.startX+dx, g.state.startY+dy)
	case ModeResizing:
		dx, dy := g.worldDeltaLocked(screen)
		x, y, w, h := g.resizedGeometryLocked(dx, dy)
		g.store.SetNodeGeometry(g.state.nodeID, x, y, w, h)
	case ModeConnecting:
		g.connectPointer = screen
	}
}

func (g *GestureCoordinator) worldDeltaLocked(screen valueobjects.Point) (float64, float64) {
	k := g.store.Transform().K
	return (screen.X - g.state.startScreen.X) / k, (screen.Y - g.state.startScreen.Y) / k
}

// resizedGeometryLocked applies the handle-specific geometry update, clamped
// to the configured minimums. Opposite-edge handles shift x/y by the clamped
// delta so the far edge stays fixed however far the pointer overshoots.
func (g *GestureCoordinator) resizedGeometryLocked(dx, dy float64) (x, y, w, h float64) {
	x, y = g.state.startX, g.state.startY
	w, h = g.state.startWidth, g.state.startHeight

	switch g.state.handle {
	case HandleE, HandleNE, HandleSE:
		w = math.Max(g.cfg.MinNodeWidth, g.state.startWidth+dx)
	case HandleW, HandleNW, HandleSW:
		w = math.Max(g.cfg.MinNodeWidth, g.state.startWidth-dx)
		x = g.state.startX + (g.state.startWidth - w)
	}
	switch g.state.handle {
	case HandleS, HandleSE, HandleSW:
		h = math.Max(g.cfg.MinNodeHeight, g.state.startHeight+dy)
	case HandleN, HandleNE, HandleNW:
		h = math.Max(g.cfg.MinNodeHeight, g.state.startHeight-dy)
		y = g.state.startY + (g.state.startHeight - h)
	}
	return x, y, w, h
}

// EndGesture finishes the active drag or resize, triggering a collision
// pass pinned on the touched node. Ending an already-ended gesture is a
// no-op, so duplicate mouseup/touchend pairs are harmless. Connect gestures
// are not ended here; they complete or cancel explicitly.
func (g *GestureCoordinator) EndGesture() {
	g.mu.Lock()
	if g.mode != ModeDragging && g.mode != ModeResizing {
		if g.mode == ModePanZoom || g.mode == ModeTextSelecting {
			g.mode = ModeIdle
		}
		g.mu.Unlock()
		return
	}
	pinned := g.state.nodeID
	g.mode = ModeIdle
	g.state = gestureState{}
	g.mu.Unlock()

	g.store.ResolveCollisionsPinned(pinned)
}

// BeginConnect starts an edge-connect gesture from the given source node
func (g *GestureCoordinator) BeginConnect(source valueobjects.NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nodeGestureActiveLocked() {
		return pkgerrors.NewConflictError("another node gesture is active")
	}
	if _, ok := g.store.Snapshot().NodeByID(source); !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	g.mode = ModeConnecting
	g.connectSource = source
	return nil
}

// RubberBand returns the live connect line from the source node's center to
// the pointer, or false when no connect gesture is active.
func (g *GestureCoordinator) RubberBand() (from valueobjects.Point, to valueobjects.Point, active bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mode != ModeConnecting {
		return valueobjects.Point{}, valueobjects.Point{}, false
	}
	node, ok := g.store.Snapshot().NodeByID(g.connectSource)
	if !ok {
		return valueobjects.Point{}, valueobjects.Point{}, false
	}
	return node.Center(), g.connectPointer, true
}

// CompleteConnect finishes the connect gesture on the clicked target node.
// Clicking the source itself or an unknown node aborts with no mutation;
// an already-existing ordered pair is not re-created.
func (g *GestureCoordinator) CompleteConnect(target valueobjects.NodeID) error {
	g.mu.Lock()
	if g.mode != ModeConnecting {
		g.mu.Unlock()
		return pkgerrors.NewConflictError("no connect gesture in progress")
	}
	source := g.connectSource
	g.mode = ModeIdle
	g.connectSource = valueobjects.NodeID{}
	g.mu.Unlock()

	if source.Equals(target) {
		return pkgerrors.NewValidationError("cannot connect node to itself")
	}
	if _, ok := g.store.Snapshot().NodeByID(target); !ok {
		return pkgerrors.NewNotFoundError("node")
	}

	edge, err := entities.NewEdge(source, target, "", g.store.Scope())
	if err != nil {
		return err
	}
	if err := g.store.AddEdge(edge); err != nil {
		if pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict) {
			return nil // duplicate pair, silently kept as-is
		}
		return err
	}
	return nil
}

// CancelConnect aborts the connect gesture with no mutation
func (g *GestureCoordinator) CancelConnect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mode == ModeConnecting {
		g.mode = ModeIdle
		g.connectSource = valueobjects.NodeID{}
	}
}

// CompleteTextSelection records a finished native text selection and returns
// the floating affordance for it. Empty selections clear any affordance.
func (g *GestureCoordinator) CompleteTextSelection(text string, anchor valueobjects.NodeID, at valueobjects.Point) *SelectionAffordance {
	g.mu.Lock()
	defer g.mu.Unlock()
	if text == "" {
		g.affordance = nil
		if g.mode == ModeTextSelecting {
			g.mode = ModeIdle
		}
		return nil
	}
	if g.nodeGestureActiveLocked() {
		return nil
	}
	g.mode = ModeTextSelecting
	g.affordance = &SelectionAffordance{Text: text, AnchorID: anchor, At: at}
	return g.affordance
}

// ClearTextSelection drops the affordance when the browser selection
// collapses or the user clicks elsewhere.
func (g *GestureCoordinator) ClearTextSelection() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.affordance = nil
	if g.mode == ModeTextSelecting {
		g.mode = ModeIdle
	}
}

// Affordance returns the live selection affordance, if any
func (g *GestureCoordinator) Affordance() *SelectionAffordance {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.affordance
}

// CreateNodeFromSelection materializes the affordance into a new note or
// chat node near the anchor, connected back to it when an anchor exists.
func (g *GestureCoordinator) CreateNodeFromSelection(nodeType entities.NodeType) (*entities.Node, error) {
	g.mu.Lock()
	aff := g.affordance
	g.mu.Unlock()
	if aff == nil {
		return nil, pkgerrors.NewConflictError("no text selection active")
	}

	scope := g.store.Scope()
	x, y := 0.0, 0.0
	if anchor, ok := g.store.Snapshot().NodeByID(aff.AnchorID); ok {
		x = anchor.X + anchor.Width + g.cfg.CollisionMargin*2
		y = anchor.Y
	}

	node, err := entities.NewNode(nodeType, scope, x, y, g.cfg.DefaultNodeWidth, g.cfg.DefaultNodeHeight)
	if err != nil {
		return nil, err
	}
	node.UpdateContent(valueobjects.NewNodeContent(aff.Text, "", nil))
	g.store.AddNode(node)

	if !aff.AnchorID.IsZero() {
		if edge, err := entities.NewEdge(aff.AnchorID, node.ID, "", scope); err == nil {
			_ = g.store.AddEdge(edge)
		}
	}

	if g.events != nil {
		g.events.FocusRequested(node.ID)
	}
	g.ClearTextSelection()
	return node, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
