// Package validators normalizes and validates entities at the ingestion
// boundary. Fetched and collaborator-produced nodes are untrusted: geometry
// may be missing or corrupt and links may be junk, so everything is repaired
// or rejected here before it reaches the working set.
package validators

import (
	"regexp"
	"strings"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	pkgerrors "canvas-engine/pkg/errors"
)

// NodeValidator normalizes incoming nodes against the engine defaults
type NodeValidator struct {
	cfg              *config.EngineConfig
	urlPattern       *regexp.Regexp
	titleMaxLength   int
	contentMaxLength int
}

// NewNodeValidator creates a validator with default rules
func NewNodeValidator(cfg *config.EngineConfig) *NodeValidator {
	return &NodeValidator{
		cfg:              cfg,
		urlPattern:       regexp.MustCompile(`^https?://[^\s]+$`),
		titleMaxLength:   255,
		contentMaxLength: 50000,
	}
}

// Normalize repairs a node in place so it is safe for the working set:
// missing dimensions fall back to the defaults, undersized ones clamp to the
// minimums and invalid links are dropped. Returns an error only for nodes
// that cannot be repaired.
func (v *NodeValidator) Normalize(n *entities.Node) error {
	if n == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if n.ID.IsZero() {
		return pkgerrors.NewValidationError("node id is required")
	}
	if n.Type != entities.TypeNote && n.Type != entities.TypeChat {
		return pkgerrors.NewValidationError("unknown node type " + string(n.Type))
	}

	if n.Width <= 0 {
		n.Width = v.cfg.DefaultNodeWidth
	}
	if n.Height <= 0 {
		n.Height = v.cfg.DefaultNodeHeight
	}
	if n.Width < v.cfg.MinNodeWidth {
		n.Width = v.cfg.MinNodeWidth
	}
	if n.Height < v.cfg.MinNodeHeight {
		n.Height = v.cfg.MinNodeHeight
	}

	// Corrupt coordinates stay on the node; geometric passes skip them and
	// the next layout pass assigns fresh positions. Zeroing them here would
	// silently stack every broken node at the origin.

	if n.Link != "" && !v.urlPattern.MatchString(n.Link) {
		n.Link = ""
	}

	title := strings.TrimSpace(n.Content.Title())
	if len(title) > v.titleMaxLength {
		return pkgerrors.NewValidationError("node title too long")
	}
	if len(n.Content.Text()) > v.contentMaxLength {
		return pkgerrors.NewValidationError("node content too long")
	}
	return nil
}

// EdgeValidator validates incoming edges
type EdgeValidator struct{}

// NewEdgeValidator creates an edge validator
func NewEdgeValidator() *EdgeValidator {
	return &EdgeValidator{}
}

// Validate checks that an edge is structurally usable
func (v *EdgeValidator) Validate(e *entities.Edge) error {
	if e == nil {
		return pkgerrors.NewValidationError("edge cannot be nil")
	}
	if e.Source.IsZero() || e.Target.IsZero() {
		return pkgerrors.NewValidationError("edge endpoints are required")
	}
	if e.Source.Equals(e.Target) {
		return pkgerrors.NewValidationError("edge cannot connect a node to itself")
	}
	return nil
}
