package services

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"canvas-engine/application/ports"
	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/pkg/notify"
	"canvas-engine/pkg/observability"
	"canvas-engine/pkg/ratelimit"

	pkgerrors "canvas-engine/pkg/errors"
)

// ExpansionService orchestrates AI-driven graph expansion: it asks the
// expansion collaborator for related nodes, normalizes the untrusted result,
// materializes new nodes around the source and optionally recurses one level
// into the children. At most one expansion runs per source node at a time.
type ExpansionService struct {
	store     *GraphStore
	expander  ports.Expander
	subtopics ports.SubtopicSource
	cfg       *config.EngineConfig
	validate  *validator.Validate
	cache     *gocache.Cache
	notifier  *notify.Notifier
	metrics   *observability.Metrics
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[string]bool

	// Local throttle, in front of whatever quota the collaborator enforces.
	limiter *ratelimit.TokenBucketLimiter

	expanderBreaker *gobreaker.CircuitBreaker
	subtopicBreaker *gobreaker.CircuitBreaker
}

// NewExpansionService creates the orchestrator. Both collaborators sit behind
// circuit breakers so a flapping upstream fails fast instead of queueing.
func NewExpansionService(
	store *GraphStore,
	expander ports.Expander,
	subtopics ports.SubtopicSource,
	cfg *config.EngineConfig,
	notifier *notify.Notifier,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ExpansionService {
	return &ExpansionService{
		store:           store,
		expander:        expander,
		subtopics:       subtopics,
		cfg:             cfg,
		validate:        validator.New(),
		cache:           gocache.New(cfg.ExpansionCacheTTL, cfg.ExpansionCacheTTL),
		notifier:        notifier,
		metrics:         metrics,
		logger:          logger,
		inflight:        make(map[string]bool),
		limiter:         ratelimit.NewTokenBucketLimiter(cfg.MaxExpansionNodes*2, time.Second),
		expanderBreaker: newBreaker("expander", logger),
		subtopicBreaker: newBreaker("subtopics", logger),
	}
}

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Busy reports whether an expansion is currently running for the node
func (s *ExpansionService) Busy(id valueobjects.NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[id.String()]
}

// Expand runs a full expansion for the source node. A second call for the
// same source while one is in flight fails with a conflict; quota exhaustion
// surfaces as a rate-limit error so callers can prompt instead of toasting.
func (s *ExpansionService) Expand(ctx context.Context, sourceID valueobjects.NodeID) error {
	return s.expand(ctx, sourceID, 0)
}

func (s *ExpansionService) expand(ctx context.Context, sourceID valueobjects.NodeID, depth int) error {
	s.mu.Lock()
	if s.inflight[sourceID.String()] {
		s.mu.Unlock()
		return pkgerrors.NewConflictError("expansion already in progress for node")
	}
	s.inflight[sourceID.String()] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, sourceID.String())
		s.mu.Unlock()
	}()

	source, ok := s.store.Snapshot().NodeByID(sourceID)
	if !ok {
		s.metrics.ExpansionResults.WithLabelValues("missing_source").Inc()
		return pkgerrors.NewNotFoundError("expansion source node")
	}

	topic := strings.TrimSpace(source.Content.Title())
	if topic == "" {
		s.metrics.ExpansionResults.WithLabelValues("empty_topic").Inc()
		return pkgerrors.NewValidationError("expansion source has no title")
	}

	result, err := s.fetchExpansion(ctx, topic, s.neighborLabels(source))
	if err != nil {
		s.metrics.ExpansionResults.WithLabelValues("error").Inc()
		if pkgerrors.IsRateLimit(err) {
			// Quota exhaustion is a product state, not a failure toast.
			return err
		}
		s.notifier.Push(notify.LevelError, "Expansion failed for \""+topic+"\"", nil)
		s.logger.Warn("expansion failed", zap.String("topic", topic), zap.Error(err))
		return err
	}

	created := s.materialize(source, result)
	s.metrics.ExpansionResults.WithLabelValues("ok").Inc()
	s.logger.Info("expansion applied",
		zap.String("topic", topic),
		zap.Int("nodes", len(created)),
		zap.Int("depth", depth),
	)

	if depth+1 < s.cfg.MaxExpansionDepth {
		for _, child := range created {
			childID := child.ID
			go func() {
				if err := s.expand(ctx, childID, depth+1); err != nil && !pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict) {
					s.logger.Debug("child expansion skipped",
						zap.String("node", childID.String()),
						zap.Error(err),
					)
				}
			}()
		}
	}
	return nil
}

// fetchExpansion returns a normalized expansion for the topic, serving
// repeats from the TTL cache without touching the collaborator.
func (s *ExpansionService) fetchExpansion(ctx context.Context, topic string, contextLabels []string) (*ports.ExpansionResult, error) {
	key := strings.ToLower(topic)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*ports.ExpansionResult), nil
	}

	if !s.limiter.Allow("expand") {
		return nil, pkgerrors.NewRateLimitError("expander")
	}

	raw, err := s.expanderBreaker.Execute(func() (interface{}, error) {
		return s.expander.Expand(ctx, topic, contextLabels)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, pkgerrors.NewUnavailableError("expander").WithCause(err)
		}
		return nil, err
	}

	result := s.normalize(topic, raw.(*ports.ExpansionResult))
	s.cache.Set(key, result, gocache.DefaultExpiration)
	return result, nil
}

// normalize repairs the untrusted collaborator payload: missing arrays become
// empty, nameless entries are dropped, the main topic defaults to the query
// and the node list is capped.
func (s *ExpansionService) normalize(topic string, raw *ports.ExpansionResult) *ports.ExpansionResult {
	out := &ports.ExpansionResult{
		Nodes:     make([]ports.ExpansionNode, 0),
		Edges:     make([]ports.ExpansionEdge, 0),
		MainTopic: topic,
	}
	if raw == nil {
		return out
	}
	if strings.TrimSpace(raw.MainTopic) != "" {
		out.MainTopic = raw.MainTopic
	}

	for _, n := range raw.Nodes {
		n.Name = strings.TrimSpace(n.Name)
		if s.validate.Struct(n) != nil {
			continue
		}
		out.Nodes = append(out.Nodes, n)
		if len(out.Nodes) >= s.cfg.MaxExpansionNodes {
			break
		}
	}

	named := make(map[string]bool, len(out.Nodes))
	for _, n := range out.Nodes {
		named[strings.ToLower(n.Name)] = true
	}
	for _, e := range raw.Edges {
		e.TargetName = strings.TrimSpace(e.TargetName)
		if s.validate.Struct(e) != nil {
			continue
		}
		if !named[strings.ToLower(e.TargetName)] {
			continue
		}
		out.Edges = append(out.Edges, e)
	}
	return out
}

// materialize creates the expansion nodes on a ring around the source and
// connects each back to it. Relationship labels from the result attach to the
// matching edge; everything else gets an unlabeled connector. Names that
// already exist in the scope are linked instead of duplicated.
func (s *ExpansionService) materialize(source *entities.Node, result *ports.ExpansionResult) []*entities.Node {
	scope := source.Parent
	center := source.Center()
	radius := s.cfg.LinkDistance

	labels := make(map[string]string, len(result.Edges))
	for _, e := range result.Edges {
		labels[strings.ToLower(e.TargetName)] = e.Relationship
	}

	existingByTitle := make(map[string]*entities.Node)
	for _, n := range s.store.Snapshot().NodesInScope(scope) {
		title := strings.ToLower(strings.TrimSpace(n.Content.Title()))
		if title != "" {
			existingByTitle[title] = n
		}
	}

	created := make([]*entities.Node, 0, len(result.Nodes))
	count := len(result.Nodes)
	for i, spec := range result.Nodes {
		key := strings.ToLower(spec.Name)

		if existing, ok := existingByTitle[key]; ok {
			s.connect(source, existing.ID, labels[key], scope)
			continue
		}

		angle := 2 * math.Pi * float64(i) / float64(count)
		node, err := entities.NewNode(entities.TypeNote, scope,
			center.X+radius*math.Cos(angle)-s.cfg.DefaultNodeWidth/2,
			center.Y+radius*math.Sin(angle)-s.cfg.CompactNodeHeight/2,
			s.cfg.DefaultNodeWidth, s.cfg.CompactNodeHeight,
		)
		if err != nil {
			continue
		}
		node.UpdateContent(valueobjects.NewNodeContent(spec.Name, spec.Description, nil))
		node.Link = spec.WikiLink

		s.store.AddNode(node)
		s.connect(source, node.ID, labels[key], scope)
		existingByTitle[key] = node
		created = append(created, node)
	}
	return created
}

func (s *ExpansionService) connect(source *entities.Node, target valueobjects.NodeID, label string, scope valueobjects.ScopeID) {
	edge, err := entities.NewEdge(source.ID, target, label, scope)
	if err != nil {
		return
	}
	// Duplicate pairs are expected when re-expanding; keep the original.
	_ = s.store.AddEdge(edge)
}

// neighborLabels collects titles of nodes already connected to the source,
// passed to the collaborator so suggestions avoid what is already on canvas.
func (s *ExpansionService) neighborLabels(source *entities.Node) []string {
	snapshot := s.store.Snapshot()
	var labels []string
	for _, e := range snapshot.EdgesInScope(source.Parent) {
		if !e.Touches(source.ID) {
			continue
		}
		other := e.Target
		if other.Equals(source.ID) {
			other = e.Source
		}
		if n, ok := snapshot.NodeByID(other); ok {
			if title := strings.TrimSpace(n.Content.Title()); title != "" {
				labels = append(labels, title)
			}
		}
	}
	return labels
}

// Subtopics fetches related subtopic suggestions for the node's topic,
// cached by topic. An empty list is a valid answer.
func (s *ExpansionService) Subtopics(ctx context.Context, id valueobjects.NodeID) ([]ports.Subtopic, error) {
	node, ok := s.store.Snapshot().NodeByID(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	topic := strings.TrimSpace(node.Content.Title())
	if topic == "" {
		return nil, pkgerrors.NewValidationError("node has no title")
	}

	key := "subtopics:" + strings.ToLower(topic)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]ports.Subtopic), nil
	}

	raw, err := s.subtopicBreaker.Execute(func() (interface{}, error) {
		return s.subtopics.Subtopics(ctx, topic, ports.SubtopicQuery{
			Language:    "en",
			ResultLimit: s.cfg.SubtopicResultLimit,
		})
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, pkgerrors.NewUnavailableError("subtopics").WithCause(err)
		}
		return nil, err
	}

	result := raw.([]ports.Subtopic)
	if result == nil {
		result = []ports.Subtopic{}
	}
	s.cache.Set(key, result, gocache.DefaultExpiration)
	return result, nil
}
