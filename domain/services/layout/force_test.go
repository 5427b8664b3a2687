package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/services/layout"
)

func makeNode(t *testing.T, id string, x, y float64) *entities.Node {
	t.Helper()
	nodeID, err := valueobjects.NewNodeIDFromString(id)
	require.NoError(t, err)
	return &entities.Node{
		ID:     nodeID,
		Type:   entities.TypeNote,
		X:      x,
		Y:      y,
		Width:  300,
		Height: 200,
	}
}

func makeEdge(t *testing.T, src, dst *entities.Node) *entities.Edge {
	t.Helper()
	edge, err := entities.NewEdge(src.ID, dst.ID, "", valueobjects.RootScope())
	require.NoError(t, err)
	return edge
}

func testEngine() *layout.Engine {
	return layout.NewEngine(config.DefaultEngineConfig(), zap.NewNop())
}

func overlap(a, b *entities.Node) bool {
	return a.Bounds().Intersects(b.Bounds())
}

func TestResolveCollisions_SeparatesOverlappingNodes(t *testing.T) {
	e := testEngine()
	a := makeNode(t, "a", 0, 0)
	b := makeNode(t, "b", 10, 10)

	e.ResolveCollisions([]*entities.Node{a, b}, nil, valueobjects.NodeID{})

	assert.False(t, overlap(a, b))
	assert.True(t, a.HasFinitePosition())
	assert.True(t, b.HasFinitePosition())
}

func TestResolveCollisions_PinnedNodeDoesNotMove(t *testing.T) {
	e := testEngine()
	pinned := makeNode(t, "pinned", 100, 100)
	other := makeNode(t, "other", 110, 110)

	e.ResolveCollisions([]*entities.Node{pinned, other}, nil, pinned.ID)

	assert.Equal(t, 100.0, pinned.X)
	assert.Equal(t, 100.0, pinned.Y)
	assert.False(t, overlap(pinned, other))
}

func TestResolveCollisions_SingleNodeNoOp(t *testing.T) {
	e := testEngine()
	a := makeNode(t, "a", 5, 5)

	e.ResolveCollisions([]*entities.Node{a}, nil, valueobjects.NodeID{})

	assert.Equal(t, 5.0, a.X)
	assert.Equal(t, 5.0, a.Y)
}

func TestFullLayout_ForceIsDeterministic(t *testing.T) {
	e := testEngine()

	run := func() map[string][2]float64 {
		a := makeNode(t, "a", 0, 0)
		b := makeNode(t, "b", 0, 0)
		c := makeNode(t, "c", 0, 0)
		nodes := []*entities.Node{a, b, c}
		edges := []*entities.Edge{makeEdge(t, a, b), makeEdge(t, a, c)}
		e.FullLayout(layout.KindForce, nodes, edges)

		out := map[string][2]float64{}
		for _, n := range nodes {
			out[n.ID.String()] = [2]float64{n.X, n.Y}
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestFullLayout_TreeTopDown(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	e := layout.NewEngine(cfg, zap.NewNop())
	root := makeNode(t, "root", 0, 0)
	left := makeNode(t, "left", 0, 0)
	right := makeNode(t, "right", 0, 0)
	nodes := []*entities.Node{root, left, right}
	edges := []*entities.Edge{makeEdge(t, root, left), makeEdge(t, root, right)}

	e.FullLayout(layout.KindTreeTopDown, nodes, edges)

	// Root sits one level above its children, centered between them.
	assert.Less(t, root.Y, left.Y)
	assert.Less(t, root.Y, right.Y)
	assert.InDelta(t, cfg.TreeLevelSpacing, left.Y-root.Y, 1e-9)
	assert.InDelta(t, left.Y, right.Y, 1e-9)
	assert.InDelta(t, (left.Center().X+right.Center().X)/2, root.Center().X, 1e-9)
}

func TestFullLayout_TreeLeftRightSwapsAxes(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	e := layout.NewEngine(cfg, zap.NewNop())
	root := makeNode(t, "root", 0, 0)
	child := makeNode(t, "child", 0, 0)
	nodes := []*entities.Node{root, child}
	edges := []*entities.Edge{makeEdge(t, root, child)}

	e.FullLayout(layout.KindTreeLeftRight, nodes, edges)

	assert.InDelta(t, cfg.TreeLevelSpacing, child.X-root.X, 1e-9)
}

func TestFullLayout_CycleFallsBackToForce(t *testing.T) {
	e := testEngine()
	a := makeNode(t, "a", 0, 0)
	b := makeNode(t, "b", 0, 0)
	nodes := []*entities.Node{a, b}
	edges := []*entities.Edge{makeEdge(t, a, b), makeEdge(t, b, a)}

	e.FullLayout(layout.KindTreeTopDown, nodes, edges)

	// Cycle means no in-degree-zero root; the fallback still places both.
	assert.True(t, a.HasFinitePosition())
	assert.True(t, b.HasFinitePosition())
	assert.False(t, overlap(a, b))
}

func TestFullLayout_DiamondFallsBackToForce(t *testing.T) {
	e := testEngine()
	root := makeNode(t, "root", 0, 0)
	a := makeNode(t, "a", 0, 0)
	b := makeNode(t, "b", 0, 0)
	shared := makeNode(t, "shared", 0, 0)
	nodes := []*entities.Node{root, a, b, shared}
	edges := []*entities.Edge{
		makeEdge(t, root, a),
		makeEdge(t, root, b),
		makeEdge(t, a, shared),
		makeEdge(t, b, shared),
	}

	e.FullLayout(layout.KindTreeTopDown, nodes, edges)

	for _, n := range nodes {
		assert.True(t, n.HasFinitePosition())
	}
}
