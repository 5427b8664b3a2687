package viewport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/services/viewport"
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

func testCuller() *viewport.Culler {
	return viewport.NewCuller(config.DefaultEngineConfig(), zap.NewNop())
}

func TestCull_VisibleAndDistantNodes(t *testing.T) {
	c := testCuller()
	inside := makeNode(t, "inside", 100, 100)
	distant := makeNode(t, "distant", 100000, 100000)

	result := c.Cull(
		[]*entities.Node{inside, distant},
		nil,
		valueobjects.IdentityTransform(),
		1000, 800,
		valueobjects.TierDetail,
	)

	require.Len(t, result.Nodes, 1)
	assert.Equal(t, "inside", result.Nodes[0].ID.String())
}

func TestCull_NodeOverlappingFromOutside(t *testing.T) {
	// Top-left corner is left of the viewport but the box reaches into it.
	c := testCuller()
	straddling := makeNode(t, "straddling", -250, 100)

	result := c.Cull(
		[]*entities.Node{straddling},
		nil,
		valueobjects.IdentityTransform(),
		1000, 800,
		valueobjects.TierDetail,
	)

	require.Len(t, result.Nodes, 1)
}

func TestCull_InvalidTransform(t *testing.T) {
	c := testCuller()
	node := makeNode(t, "a", 0, 0)

	result := c.Cull(
		[]*entities.Node{node},
		nil,
		valueobjects.Transform{K: 0},
		1000, 800,
		valueobjects.TierDetail,
	)

	assert.Empty(t, result.Nodes)
	assert.Empty(t, result.Edges)
}

func TestCull_SkipsEdgesAtClusterTier(t *testing.T) {
	c := testCuller()
	a := makeNode(t, "a", 0, 0)
	b := makeNode(t, "b", 400, 0)

	result := c.Cull(
		[]*entities.Node{a, b},
		[]*entities.Edge{makeEdge(t, a, b)},
		valueobjects.IdentityTransform(),
		1000, 800,
		valueobjects.TierCluster,
	)

	assert.Empty(t, result.Edges)
}

func TestCull_EdgeWithBothEndpointsVisible(t *testing.T) {
	c := testCuller()
	a := makeNode(t, "a", 0, 0)
	b := makeNode(t, "b", 400, 0)

	result := c.Cull(
		[]*entities.Node{a, b},
		[]*entities.Edge{makeEdge(t, a, b)},
		valueobjects.IdentityTransform(),
		1000, 800,
		valueobjects.TierDetail,
	)

	require.Len(t, result.Edges, 1)
}

func TestCull_DanglingEdgeDropped(t *testing.T) {
	c := testCuller()
	a := makeNode(t, "a", 0, 0)
	ghost := makeNode(t, "ghost", 400, 0)

	// The edge references ghost but ghost is not in the node set.
	result := c.Cull(
		[]*entities.Node{a},
		[]*entities.Edge{makeEdge(t, a, ghost)},
		valueobjects.IdentityTransform(),
		1000, 800,
		valueobjects.TierDetail,
	)

	assert.Empty(t, result.Edges)
}

func TestCull_LookupCoversAllInputNodes(t *testing.T) {
	c := testCuller()
	inside := makeNode(t, "inside", 100, 100)
	distant := makeNode(t, "distant", 100000, 100000)

	result := c.Cull(
		[]*entities.Node{inside, distant},
		nil,
		valueobjects.IdentityTransform(),
		1000, 800,
		valueobjects.TierDetail,
	)

	// Culled nodes stay addressable for edge endpoint resolution.
	assert.Len(t, result.Lookup, 2)
}
