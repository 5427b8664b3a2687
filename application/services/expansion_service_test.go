package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-engine/application/ports"
	"canvas-engine/application/services"
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"
	pkgerrors "canvas-engine/pkg/errors"
	"canvas-engine/pkg/notify"
	"canvas-engine/pkg/observability"
)

// fakeExpander returns a canned result, optionally blocking until released
type fakeExpander struct {
	mu     sync.Mutex
	calls  int
	result *ports.ExpansionResult
	err    error
	block  chan struct{}
}

func (f *fakeExpander) Expand(ctx context.Context, topic string, contextLabels []string) (*ports.ExpansionResult, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.result, f.err
}

func (f *fakeExpander) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSubtopics struct {
	result []ports.Subtopic
	err    error
	calls  int
}

func (f *fakeSubtopics) Subtopics(ctx context.Context, topic string, query ports.SubtopicQuery) ([]ports.Subtopic, error) {
	f.calls++
	return f.result, f.err
}

func testExpansion(t *testing.T, expander ports.Expander, subtopics ports.SubtopicSource, cfg *config.EngineConfig) (*services.ExpansionService, *services.GraphStore, *notify.Notifier) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultEngineConfig()
		cfg.MaxExpansionDepth = 1 // keep tests single-level
	}
	store, _ := testStore(t, cfg)
	logger := zap.NewNop()
	notifier := notify.NewNotifier(time.Minute, logger)
	svc := services.NewExpansionService(store, expander, subtopics, cfg, notifier, observability.NewTestMetrics(), logger)
	return svc, store, notifier
}

func expansionResult() *ports.ExpansionResult {
	return &ports.ExpansionResult{
		MainTopic: "Graph Theory",
		Nodes: []ports.ExpansionNode{
			{Name: "Euler Paths", Description: "Traversals using every edge once"},
			{Name: "Planarity"},
			{Name: ""}, // nameless, must be dropped
		},
		Edges: []ports.ExpansionEdge{
			{TargetName: "Euler Paths", Relationship: "includes"},
			{TargetName: "Unknown Topic"}, // no matching node, must be dropped
			{TargetName: ""},
		},
	}
}

func TestExpand_MaterializesNodesAroundSource(t *testing.T) {
	expander := &fakeExpander{result: expansionResult()}
	svc, store, _ := testExpansion(t, expander, nil, nil)
	source := makeNode(t, "source", 0, 0)
	source.UpdateContent(valueobjects.NewNodeContent("Graph Theory", "", nil))
	store.AddNode(source)

	require.NoError(t, svc.Expand(context.Background(), source.ID))

	// Two valid suggestions, each connected back to the source.
	snapshot := store.Snapshot()
	assert.Len(t, snapshot.Nodes(), 3)
	assert.Len(t, snapshot.Edges(), 2)
	for _, e := range snapshot.Edges() {
		assert.Equal(t, source.ID, e.Source)
	}

	var labels []string
	for _, e := range snapshot.Edges() {
		labels = append(labels, e.Label)
	}
	assert.Contains(t, labels, "includes")
}

func TestExpand_CapsNodeCount(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.MaxExpansionDepth = 1
	cfg.MaxExpansionNodes = 1
	expander := &fakeExpander{result: expansionResult()}
	svc, store, _ := testExpansion(t, expander, nil, cfg)
	source := makeNode(t, "source", 0, 0)
	source.UpdateContent(valueobjects.NewNodeContent("Graph Theory", "", nil))
	store.AddNode(source)

	require.NoError(t, svc.Expand(context.Background(), source.ID))

	assert.Len(t, store.Snapshot().Nodes(), 2)
}

func TestExpand_SecondCallServedFromCache(t *testing.T) {
	expander := &fakeExpander{result: expansionResult()}
	svc, store, _ := testExpansion(t, expander, nil, nil)
	source := makeNode(t, "source", 0, 0)
	source.UpdateContent(valueobjects.NewNodeContent("Graph Theory", "", nil))
	store.AddNode(source)

	require.NoError(t, svc.Expand(context.Background(), source.ID))
	require.NoError(t, svc.Expand(context.Background(), source.ID))

	assert.Equal(t, 1, expander.callCount())
	// Existing names are linked, not duplicated.
	assert.Len(t, store.Snapshot().Nodes(), 3)
}

func TestExpand_RejectsConcurrentExpansionOfSameNode(t *testing.T) {
	expander := &fakeExpander{result: expansionResult(), block: make(chan struct{})}
	svc, store, _ := testExpansion(t, expander, nil, nil)
	source := makeNode(t, "source", 0, 0)
	source.UpdateContent(valueobjects.NewNodeContent("Graph Theory", "", nil))
	store.AddNode(source)

	done := make(chan error, 1)
	go func() { done <- svc.Expand(context.Background(), source.ID) }()

	require.Eventually(t, func() bool { return svc.Busy(source.ID) }, time.Second, time.Millisecond)

	err := svc.Expand(context.Background(), source.ID)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict))

	close(expander.block)
	require.NoError(t, <-done)
	assert.False(t, svc.Busy(source.ID))
}

func TestExpand_RateLimitSurfacesWithoutToast(t *testing.T) {
	expander := &fakeExpander{err: pkgerrors.NewRateLimitError("expander")}
	svc, store, notifier := testExpansion(t, expander, nil, nil)
	source := makeNode(t, "source", 0, 0)
	source.UpdateContent(valueobjects.NewNodeContent("Graph Theory", "", nil))
	store.AddNode(source)

	err := svc.Expand(context.Background(), source.ID)

	assert.True(t, pkgerrors.IsRateLimit(err))
	assert.Empty(t, notifier.Active())
}

func TestExpand_GenericFailurePushesToast(t *testing.T) {
	expander := &fakeExpander{err: pkgerrors.NewExternalError("expander", nil)}
	svc, store, notifier := testExpansion(t, expander, nil, nil)
	source := makeNode(t, "source", 0, 0)
	source.UpdateContent(valueobjects.NewNodeContent("Graph Theory", "", nil))
	store.AddNode(source)

	err := svc.Expand(context.Background(), source.ID)

	assert.Error(t, err)
	require.Len(t, notifier.Active(), 1)
	assert.Equal(t, notify.LevelError, notifier.Active()[0].Level)
}

func TestExpand_MissingSource(t *testing.T) {
	svc, _, _ := testExpansion(t, &fakeExpander{}, nil, nil)

	err := svc.Expand(context.Background(), valueobjects.NewNodeID())

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestExpand_UntitledSource(t *testing.T) {
	svc, store, _ := testExpansion(t, &fakeExpander{}, nil, nil)
	source := makeNode(t, "source", 0, 0)
	store.AddNode(source)

	err := svc.Expand(context.Background(), source.ID)

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSubtopics_EmptyResultIsValid(t *testing.T) {
	source := &fakeSubtopics{result: nil}
	svc, store, _ := testExpansion(t, &fakeExpander{}, source, nil)
	node := makeNode(t, "a", 0, 0)
	node.UpdateContent(valueobjects.NewNodeContent("Topology", "", nil))
	store.AddNode(node)

	got, err := svc.Subtopics(context.Background(), node.ID)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSubtopics_CachedByTopic(t *testing.T) {
	source := &fakeSubtopics{result: []ports.Subtopic{{Label: "Knots"}}}
	svc, store, _ := testExpansion(t, &fakeExpander{}, source, nil)
	node := makeNode(t, "a", 0, 0)
	node.UpdateContent(valueobjects.NewNodeContent("Topology", "", nil))
	store.AddNode(node)

	first, err := svc.Subtopics(context.Background(), node.ID)
	require.NoError(t, err)
	second, err := svc.Subtopics(context.Background(), node.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}
