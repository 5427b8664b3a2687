package valueobjects

// Tier is a discrete level-of-detail rendering tier selected by zoom scale.
// Tiers are ordered by detail: TierCluster < TierTitle < TierDetail.
type Tier int

const (
	// TierCluster renders nodes as dots or hub labels; edges are skipped
	TierCluster Tier = iota
	// TierTitle renders nodes as centered title badges
	TierTitle
	// TierDetail renders full node content (compact unless selected)
	TierDetail
)

// String returns a human-readable tier name
func (t Tier) String() string {
	switch t {
	case TierCluster:
		return "cluster"
	case TierTitle:
		return "title"
	case TierDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// AtLeast reports whether this tier carries at least as much detail as other
func (t Tier) AtLeast(other Tier) bool {
	return t >= other
}
