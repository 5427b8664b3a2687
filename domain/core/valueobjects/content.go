package valueobjects

import "strings"

// NodeContent is a value object for a node's textual payload. The engine
// never interprets the text; it only needs semantic equality to decide
// whether a mutation is a content change (re-embed downstream) or merely a
// positional one.
type NodeContent struct {
	text    string
	summary string
	aliases []string
}

// NewNodeContent creates content from its raw parts
func NewNodeContent(text, summary string, aliases []string) NodeContent {
	trimmed := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			trimmed = append(trimmed, a)
		}
	}
	return NodeContent{
		text:    text,
		summary: summary,
		aliases: trimmed,
	}
}

// Text returns the free-text body
func (c NodeContent) Text() string {
	return c.text
}

// Summary returns the optional summary
func (c NodeContent) Summary() string {
	return c.summary
}

// Aliases returns a copy of the alias list
func (c NodeContent) Aliases() []string {
	out := make([]string, len(c.aliases))
	copy(out, c.aliases)
	return out
}

// Title returns the first line of the text, used for badge rendering
func (c NodeContent) Title() string {
	if idx := strings.IndexByte(c.text, '\n'); idx >= 0 {
		return strings.TrimSpace(c.text[:idx])
	}
	return strings.TrimSpace(c.text)
}

// IsEmpty reports whether the content carries no text at all
func (c NodeContent) IsEmpty() bool {
	return strings.TrimSpace(c.text) == "" && strings.TrimSpace(c.summary) == ""
}

// Equals reports semantic equality: same text, summary and aliases.
// Dirty tracking uses this to distinguish content changes from moves.
func (c NodeContent) Equals(other NodeContent) bool {
	if c.text != other.text || c.summary != other.summary {
		return false
	}
	if len(c.aliases) != len(other.aliases) {
		return false
	}
	for i, a := range c.aliases {
		if other.aliases[i] != a {
			return false
		}
	}
	return true
}
