package validators_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/validators"
	"canvas-engine/domain/core/valueobjects"
)

func untrustedNode(t *testing.T) *entities.Node {
	t.Helper()
	id, err := valueobjects.NewNodeIDFromString("fetched")
	require.NoError(t, err)
	return &entities.Node{
		ID:     id,
		Type:   entities.TypeNote,
		Parent: valueobjects.RootScope(),
		Width:  300,
		Height: 200,
	}
}

func TestNodeValidator_RepairsMissingDimensions(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	v := validators.NewNodeValidator(cfg)
	n := untrustedNode(t)
	n.Width = 0
	n.Height = -5

	require.NoError(t, v.Normalize(n))

	assert.Equal(t, cfg.DefaultNodeWidth, n.Width)
	assert.Equal(t, cfg.DefaultNodeHeight, n.Height)
}

func TestNodeValidator_ClampsUndersizedDimensions(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	v := validators.NewNodeValidator(cfg)
	n := untrustedNode(t)
	n.Width = 10
	n.Height = 10

	require.NoError(t, v.Normalize(n))

	assert.Equal(t, cfg.MinNodeWidth, n.Width)
	assert.Equal(t, cfg.MinNodeHeight, n.Height)
}

func TestNodeValidator_KeepsCorruptCoordinates(t *testing.T) {
	v := validators.NewNodeValidator(config.DefaultEngineConfig())
	n := untrustedNode(t)
	n.X = math.NaN()

	require.NoError(t, v.Normalize(n))

	// Layout reassigns these; zeroing would stack broken nodes at the origin.
	assert.True(t, math.IsNaN(n.X))
}

func TestNodeValidator_DropsInvalidLinks(t *testing.T) {
	v := validators.NewNodeValidator(config.DefaultEngineConfig())

	cases := map[string]string{
		"javascript:alert(1)":          "",
		"ftp://example.com/x":          "",
		"not a url":                    "",
		"https://example.com/article":  "https://example.com/article",
		"http://example.com/article":   "http://example.com/article",
		"https://example.com/a%20b?q=": "https://example.com/a%20b?q=",
	}
	for link, want := range cases {
		n := untrustedNode(t)
		n.Link = link
		require.NoError(t, v.Normalize(n))
		assert.Equal(t, want, n.Link, "link %q", link)
	}
}

func TestNodeValidator_RejectsUnrepairableNodes(t *testing.T) {
	v := validators.NewNodeValidator(config.DefaultEngineConfig())

	assert.Error(t, v.Normalize(nil))

	noID := untrustedNode(t)
	noID.ID = valueobjects.NodeID{}
	assert.Error(t, v.Normalize(noID))

	badType := untrustedNode(t)
	badType.Type = "widget"
	assert.Error(t, v.Normalize(badType))

	longTitle := untrustedNode(t)
	longTitle.Content = valueobjects.NewNodeContent(strings.Repeat("x", 300), "", nil)
	assert.Error(t, v.Normalize(longTitle))
}

func TestEdgeValidator_RejectsMalformedEdges(t *testing.T) {
	v := validators.NewEdgeValidator()
	a, err := valueobjects.NewNodeIDFromString("a")
	require.NoError(t, err)
	b, err := valueobjects.NewNodeIDFromString("b")
	require.NoError(t, err)

	assert.Error(t, v.Validate(nil))
	assert.Error(t, v.Validate(&entities.Edge{Source: a}))
	assert.Error(t, v.Validate(&entities.Edge{Source: a, Target: a}))
	assert.NoError(t, v.Validate(&entities.Edge{Source: a, Target: b}))
}
