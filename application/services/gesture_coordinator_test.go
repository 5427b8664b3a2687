package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-engine/application/services"
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

func testGesture(t *testing.T) (*services.GestureCoordinator, *services.GraphStore) {
	t.Helper()
	store, _ := testStore(t, nil)
	g := services.NewGestureCoordinator(store, &recordingEvents{}, config.DefaultEngineConfig(), zap.NewNop())
	return g, store
}

func TestGesture_DragScalesByInverseZoom(t *testing.T) {
	g, store := testGesture(t)
	n := makeNode(t, "a", 100, 100)
	store.AddNode(n)
	store.SetTransform(valueobjects.Transform{X: 0, Y: 0, K: 0.5})

	require.NoError(t, g.BeginNodeDrag(n.ID, valueobjects.Point{X: 0, Y: 0}))
	g.MovePointer(valueobjects.Point{X: 50, Y: 20})

	// 50 screen pixels at zoom 0.5 are 100 world units.
	assert.Equal(t, 200.0, n.X)
	assert.Equal(t, 140.0, n.Y)
}

func TestGesture_NodeGesturesAreExclusive(t *testing.T) {
	g, store := testGesture(t)
	a := makeNode(t, "a", 0, 0)
	b := makeNode(t, "b", 500, 0)
	store.AddNode(a)
	store.AddNode(b)

	require.NoError(t, g.BeginNodeDrag(a.ID, valueobjects.Point{}))

	assert.Error(t, g.BeginNodeDrag(b.ID, valueobjects.Point{}))
	assert.Error(t, g.BeginResize(b.ID, services.HandleSE, valueobjects.Point{}))
	assert.Error(t, g.BeginConnect(b.ID))
	assert.False(t, g.AllowPanZoom(services.OriginCanvas, false))
	assert.False(t, g.AllowPanZoom(services.OriginCanvas, true))
}

func TestGesture_EndIsIdempotent(t *testing.T) {
	g, store := testGesture(t)
	n := makeNode(t, "a", 0, 0)
	store.AddNode(n)
	require.NoError(t, g.BeginNodeDrag(n.ID, valueobjects.Point{}))

	g.EndGesture()
	assert.Equal(t, services.ModeIdle, g.Mode())
	g.EndGesture() // duplicate mouseup/touchend pair

	assert.Equal(t, services.ModeIdle, g.Mode())
}

func TestGesture_ResizeEastClampsToMinimum(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	g, store := testGesture(t)
	n := makeNode(t, "a", 0, 0)
	store.AddNode(n)

	require.NoError(t, g.BeginResize(n.ID, services.HandleE, valueobjects.Point{X: 300, Y: 0}))
	g.MovePointer(valueobjects.Point{X: -5000, Y: 0})

	assert.Equal(t, cfg.MinNodeWidth, n.Width)
	assert.Equal(t, 0.0, n.X)
}

func TestGesture_ResizeWestKeepsOppositeEdgeFixed(t *testing.T) {
	g, store := testGesture(t)
	n := makeNode(t, "a", 100, 0)
	store.AddNode(n)
	rightEdge := n.X + n.Width

	require.NoError(t, g.BeginResize(n.ID, services.HandleW, valueobjects.Point{X: 100, Y: 0}))
	g.MovePointer(valueobjects.Point{X: 40, Y: 0})

	assert.Equal(t, 360.0, n.Width)
	assert.Equal(t, rightEdge, n.X+n.Width)
}

func TestGesture_ResizeNorthWestAdjustsBothOrigins(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	g, store := testGesture(t)
	n := makeNode(t, "a", 100, 100)
	store.AddNode(n)
	right := n.X + n.Width
	bottom := n.Y + n.Height

	require.NoError(t, g.BeginResize(n.ID, services.HandleNW, valueobjects.Point{X: 100, Y: 100}))
	// Overshoot past the minimum on both axes.
	g.MovePointer(valueobjects.Point{X: 5000, Y: 5000})

	assert.Equal(t, cfg.MinNodeWidth, n.Width)
	assert.Equal(t, cfg.MinNodeHeight, n.Height)
	assert.Equal(t, right, n.X+n.Width)
	assert.Equal(t, bottom, n.Y+n.Height)
}

func TestGesture_ConnectCreatesEdgeOnce(t *testing.T) {
	g, store := testGesture(t)
	a := makeNode(t, "a", 0, 0)
	b := makeNode(t, "b", 500, 0)
	store.AddNode(a)
	store.AddNode(b)

	require.NoError(t, g.BeginConnect(a.ID))
	require.NoError(t, g.CompleteConnect(b.ID))
	assert.Len(t, store.Snapshot().Edges(), 1)

	// Re-connecting the same pair is silently a no-op.
	require.NoError(t, g.BeginConnect(a.ID))
	require.NoError(t, g.CompleteConnect(b.ID))
	assert.Len(t, store.Snapshot().Edges(), 1)
}

func TestGesture_ConnectToSelfFails(t *testing.T) {
	g, store := testGesture(t)
	a := makeNode(t, "a", 0, 0)
	store.AddNode(a)

	require.NoError(t, g.BeginConnect(a.ID))
	err := g.CompleteConnect(a.ID)

	assert.Error(t, err)
	assert.Empty(t, store.Snapshot().Edges())
	assert.Equal(t, services.ModeIdle, g.Mode())
}

func TestGesture_CancelConnect(t *testing.T) {
	g, store := testGesture(t)
	a := makeNode(t, "a", 0, 0)
	store.AddNode(a)

	require.NoError(t, g.BeginConnect(a.ID))
	g.CancelConnect()

	assert.Equal(t, services.ModeIdle, g.Mode())
	_, _, active := g.RubberBand()
	assert.False(t, active)
}

func TestGesture_RubberBandTracksPointer(t *testing.T) {
	g, store := testGesture(t)
	a := makeNode(t, "a", 0, 0)
	store.AddNode(a)

	require.NoError(t, g.BeginConnect(a.ID))
	g.MovePointer(valueobjects.Point{X: 777, Y: 888})

	from, to, active := g.RubberBand()
	require.True(t, active)
	assert.Equal(t, a.Center(), from)
	assert.Equal(t, 777.0, to.X)
	assert.Equal(t, 888.0, to.Y)
}

func TestGesture_PanZoomFilter(t *testing.T) {
	g, _ := testGesture(t)

	assert.True(t, g.AllowPanZoom(services.OriginCanvas, false))
	assert.False(t, g.AllowPanZoom(services.OriginNode, false))
	assert.False(t, g.AllowPanZoom(services.OriginChrome, false))
	// Zoom-intent wheel passes regardless of origin.
	assert.True(t, g.AllowPanZoom(services.OriginNode, true))
	assert.True(t, g.AllowPanZoom(services.OriginChrome, true))
}

func TestGesture_ZoomAboutPointKeepsAnchor(t *testing.T) {
	g, store := testGesture(t)
	anchor := valueobjects.Point{X: 400, Y: 300}
	before := store.Transform().ScreenToWorld(anchor)

	g.Zoom(2, anchor)

	after := store.Transform().ScreenToWorld(anchor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
	assert.InDelta(t, 2, store.Transform().K, 1e-9)
}

func TestGesture_SelectionAffordanceCreatesConnectedNote(t *testing.T) {
	g, store := testGesture(t)
	anchor := makeNode(t, "anchor", 0, 0)
	store.AddNode(anchor)

	aff := g.CompleteTextSelection("picked text", anchor.ID, valueobjects.Point{X: 10, Y: 10})
	require.NotNil(t, aff)

	node, err := g.CreateNodeFromSelection(entities.TypeNote)
	require.NoError(t, err)
	assert.Equal(t, "picked text", node.Content.Text())
	assert.Len(t, store.Snapshot().Edges(), 1)
	assert.Nil(t, g.Affordance())
}

func TestGesture_EmptySelectionClearsAffordance(t *testing.T) {
	g, store := testGesture(t)
	anchor := makeNode(t, "anchor", 0, 0)
	store.AddNode(anchor)
	require.NotNil(t, g.CompleteTextSelection("text", anchor.ID, valueobjects.Point{}))

	assert.Nil(t, g.CompleteTextSelection("", anchor.ID, valueobjects.Point{}))
	assert.Nil(t, g.Affordance())
}

func TestGesture_PanOccupiesModeUntilEnd(t *testing.T) {
	g, store := testGesture(t)

	g.Pan(10, 5)

	assert.Equal(t, services.ModePanZoom, g.Mode())
	assert.Equal(t, 10.0, store.Transform().X)
	assert.Equal(t, 5.0, store.Transform().Y)

	g.EndGesture()
	assert.Equal(t, services.ModeIdle, g.Mode())
}

func TestGesture_ZoomOccupiesModeUntilEnd(t *testing.T) {
	g, _ := testGesture(t)

	g.Zoom(2, valueobjects.Point{X: 100, Y: 100})

	assert.Equal(t, services.ModePanZoom, g.Mode())
	g.EndGesture()
	assert.Equal(t, services.ModeIdle, g.Mode())
}

func TestGesture_NodeDragPreemptsPanMode(t *testing.T) {
	g, store := testGesture(t)
	n := makeNode(t, "a", 0, 0)
	store.AddNode(n)
	g.Pan(10, 0)

	require.NoError(t, g.BeginNodeDrag(n.ID, valueobjects.Point{}))
	assert.Equal(t, services.ModeDragging, g.Mode())
}
