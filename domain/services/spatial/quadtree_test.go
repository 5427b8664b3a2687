package spatial_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/services/spatial"
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
		Width:  100,
		Height: 50,
	}
}

func TestBuild_ExcludesNonFinitePositions(t *testing.T) {
	nodes := []*entities.Node{
		makeNode(t, "a", 0, 0),
		makeNode(t, "b", math.NaN(), 10),
		makeNode(t, "c", math.Inf(1), math.Inf(1)),
	}

	idx := spatial.Build(nodes)

	assert.Equal(t, 1, idx.Size())
}

func TestBuild_Empty(t *testing.T) {
	idx := spatial.Build(nil)

	assert.Equal(t, 0, idx.Size())
	idx.VisitRange(valueobjects.NewRect(0, 0, 100, 100), func(*entities.Node) {
		t.Fatal("empty index must visit nothing")
	})
}

func TestVisitRange_MatchesBruteForce(t *testing.T) {
	nodes := []*entities.Node{
		makeNode(t, "a", 0, 0),
		makeNode(t, "b", 50, 50),
		makeNode(t, "c", 200, 200),
		makeNode(t, "d", -75, 30),
		makeNode(t, "e", 999, -400),
		makeNode(t, "f", 50, 200),
	}
	idx := spatial.Build(nodes)
	query := valueobjects.NewRect(-100, -100, 300, 350)

	visited := map[string]bool{}
	idx.VisitRange(query, func(n *entities.Node) {
		visited[n.ID.String()] = true
	})

	for _, n := range nodes {
		want := query.Contains(n.Position())
		assert.Equal(t, want, visited[n.ID.String()], "node %s", n.ID)
	}
}

func TestVisitRange_PointOnQueryBoundary(t *testing.T) {
	nodes := []*entities.Node{makeNode(t, "edge", 100, 100)}
	idx := spatial.Build(nodes)

	count := 0
	idx.VisitRange(valueobjects.NewRect(0, 0, 100, 100), func(*entities.Node) {
		count++
	})

	assert.Equal(t, 1, count)
}

func TestBuild_CoincidentPoints(t *testing.T) {
	// All entries at one position must not recurse forever and must all be
	// returned by a covering query.
	nodes := make([]*entities.Node, 0, 20)
	for i := 0; i < 20; i++ {
		nodes = append(nodes, makeNode(t, string(rune('a'+i)), 42, 42))
	}
	idx := spatial.Build(nodes)

	count := 0
	idx.VisitRange(valueobjects.NewRect(0, 0, 100, 100), func(*entities.Node) {
		count++
	})

	assert.Equal(t, 20, count)
}
