package layout

import (
	"maps"
	"slices"

	"github.com/matzehuels/agentgraph/pkg/span"
	"github.com/matzehuels/agentgraph/pkg/topology"
)

// IDSet is a set of node ids. The expanded set passed to [Visible] is owned by
// the caller and is never mutated by this package; the With, Without and
// Toggle helpers return new sets.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set has no members.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy of s that also contains id.
func (s IDSet) With(id string) IDSet {
	out := maps.Clone(s)
	if out == nil {
		out = make(IDSet, 1)
	}
	out[id] = struct{}{}
	return out
}

// Without returns a copy of s without id.
func (s IDSet) Without(id string) IDSet {
	out := maps.Clone(s)
	if out == nil {
		out = make(IDSet)
	}
	delete(out, id)
	return out
}

// Toggle returns a copy of s with the membership of id flipped.
func (s IDSet) Toggle(id string) IDSet {
	if s.Has(id) {
		return s.Without(id)
	}
	return s.With(id)
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Point is a 2D coordinate in layout units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Lerp interpolates between p and q.
func (p Point) Lerp(q Point, t float64) Point {
	switch {
	case t <= 0:
		return p
	case t >= 1:
		return q
	}
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Positions maps node ids to the top-left corner of their card.
type Positions map[string]Point

// Category selects a card footprint.
type Category int

const (
	CategoryTool Category = iota
	CategoryLLM
	CategoryAgent
	CategoryUserEntry
)

var categoryNames = [...]string{
	CategoryTool:      "tool",
	CategoryLLM:       "llm",
	CategoryAgent:     "agent",
	CategoryUserEntry: "user_entry",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseCategory maps a configuration key ("agent", "user_entry", ...) to a
// Category.
func ParseCategory(s string) (Category, bool) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), true
		}
	}
	return 0, false
}

// CategoryOf returns the footprint category of n. User entry points get their
// own, larger card; Glue and unknown types fall back to the Tool card.
func CategoryOf(n topology.Node) Category {
	if n.IsUserEntryPoint {
		return CategoryUserEntry
	}
	switch n.Type {
	case span.KindAgent:
		return CategoryAgent
	case span.KindLLM:
		return CategoryLLM
	default:
		return CategoryTool
	}
}

// Footprint is the size of a node card.
type Footprint struct {
	W float64 `json:"w" toml:"width"`
	H float64 `json:"h" toml:"height"`
}

// Footprints maps categories to card sizes.
type Footprints map[Category]Footprint

// DefaultFootprints returns the built-in card sizes.
func DefaultFootprints() Footprints {
	return Footprints{
		CategoryUserEntry: {W: 300, H: 140},
		CategoryAgent:     {W: 280, H: 120},
		CategoryLLM:       {W: 240, H: 96},
		CategoryTool:      {W: 220, H: 80},
	}
}

// Of returns the footprint for n, falling back to the default table for
// categories missing from f.
func (f Footprints) Of(n topology.Node) Footprint {
	c := CategoryOf(n)
	if fp, ok := f[c]; ok && fp.W > 0 && fp.H > 0 {
		return fp
	}
	return DefaultFootprints()[c]
}
