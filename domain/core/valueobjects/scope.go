package valueobjects

// ScopeID identifies a nested sub-graph. The root scope is the empty value;
// every ingestion path normalizes absent/null parent references to it so the
// rest of the engine never has to distinguish "no parent" representations.
type ScopeID struct {
	value string
}

// RootScope returns the root scope identifier
func RootScope() ScopeID {
	return ScopeID{}
}

// NewScopeID creates a scope identifier from a node id string.
// Empty input yields the root scope.
func NewScopeID(id string) ScopeID {
	return ScopeID{value: id}
}

// String returns the scope's node id, or "" for the root scope
func (s ScopeID) String() string {
	return s.value
}

// IsRoot reports whether this is the root scope
func (s ScopeID) IsRoot() bool {
	return s.value == ""
}

// Equals checks if two scope identifiers are equal
func (s ScopeID) Equals(other ScopeID) bool {
	return s.value == other.value
}
