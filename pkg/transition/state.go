package transition

import (
	"github.com/matzehuels/agentgraph/pkg/layout"
)

// Phase classifies a node across one transition.
type Phase int

const (
	PhaseUnknown    Phase = iota // not part of the transition
	PhasePersisting              // visible before and after
	PhaseSprouting               // appears
	PhaseCollapsing              // disappears
)

func (p Phase) String() string {
	switch p {
	case PhasePersisting:
		return "persisting"
	case PhaseSprouting:
		return "sprouting"
	case PhaseCollapsing:
		return "collapsing"
	default:
		return "unknown"
	}
}

type entry struct {
	phase    Phase
	from, to layout.Point
	broken   bool // missing required position; drawn opaque at the origin
}

// State describes the animation between two layout snapshots. Every query is
// a pure function of t in [0,1]: t=0 reproduces the old layout and t=1 the new
// one. Values outside the range are clamped.
//
// A State is immutable after [Compute] and safe for concurrent readers. A new
// State is computed for every visibility or position change.
type State struct {
	// SproutingIDs, CollapsingIDs and PersistingIDs partition the union of
	// the old and new visible sets.
	SproutingIDs  layout.IDSet
	CollapsingIDs layout.IDSet
	PersistingIDs layout.IDSet

	// ParentOfSprouting and ParentOfCollapsing record the ancestor each
	// appearing or disappearing node is anchored to. Nodes without an anchor
	// have no entry and animate from or to the origin.
	ParentOfSprouting  map[string]string
	ParentOfCollapsing map[string]string

	entries map[string]entry
	during  layout.IDSet // persisting ∪ sprouting ∪ collapsing
	final   layout.IDSet // persisting ∪ sprouting
}

// Compute builds the transition from the old snapshot to the new one.
//
// Persisting nodes move from their old to their new position. Sprouting nodes
// grow out of their nearest visible ancestor: the walk up childToParent stops
// at the first ancestor placed in the old layout, or failing that in the new
// one. Collapsing nodes shrink into their nearest ancestor in the new layout,
// or failing that in the old one. Nodes with no placed ancestor use the
// origin. None of the inputs are modified.
func Compute(oldPos, newPos layout.Positions, oldVisible, newVisible layout.IDSet, childToParent map[string]string) *State {
	s := &State{
		SproutingIDs:       make(layout.IDSet),
		CollapsingIDs:      make(layout.IDSet),
		PersistingIDs:      make(layout.IDSet),
		ParentOfSprouting:  make(map[string]string),
		ParentOfCollapsing: make(map[string]string),
		entries:            make(map[string]entry, len(oldVisible)+len(newVisible)),
		during:             make(layout.IDSet, len(oldVisible)+len(newVisible)),
		final:              make(layout.IDSet, len(newVisible)),
	}

	for id := range newVisible {
		s.during[id] = struct{}{}
		s.final[id] = struct{}{}

		if oldVisible.Has(id) {
			s.PersistingIDs[id] = struct{}{}
			from, okOld := oldPos[id]
			to, okNew := newPos[id]
			switch {
			case !okOld && !okNew:
				violation("persisting node %q has no position", id)
			case !okOld:
				from = to
			case !okNew:
				to = from
			}
			s.entries[id] = entry{phase: PhasePersisting, from: from, to: to}
			continue
		}

		s.SproutingIDs[id] = struct{}{}
		to, ok := newPos[id]
		if !ok {
			violation("sprouting node %q has no new position", id)
		}
		anchor, from, found := nearestPlaced(id, childToParent, oldPos, newPos)
		if found {
			s.ParentOfSprouting[id] = anchor
		}
		s.entries[id] = entry{phase: PhaseSprouting, from: from, to: to, broken: !ok}
	}

	for id := range oldVisible {
		if newVisible.Has(id) {
			continue
		}
		s.during[id] = struct{}{}
		s.CollapsingIDs[id] = struct{}{}

		from, ok := oldPos[id]
		if !ok {
			violation("collapsing node %q has no old position", id)
		}
		anchor, to, found := nearestPlaced(id, childToParent, newPos, oldPos)
		if found {
			s.ParentOfCollapsing[id] = anchor
		}
		s.entries[id] = entry{phase: PhaseCollapsing, from: from, to: to, broken: !ok}
	}
	return s
}

// nearestPlaced walks up childToParent from id and returns the first ancestor
// with a position in primary, then retries the walk against fallback.
func nearestPlaced(id string, childToParent map[string]string, primary, fallback layout.Positions) (string, layout.Point, bool) {
	for _, pos := range []layout.Positions{primary, fallback} {
		seen := map[string]bool{id: true}
		for p, ok := childToParent[id]; ok && !seen[p]; p, ok = childToParent[p] {
			if pt, placed := pos[p]; placed {
				return p, pt, true
			}
			seen[p] = true
		}
	}
	return "", layout.Point{}, false
}

var empty = &State{
	SproutingIDs:       layout.IDSet{},
	CollapsingIDs:      layout.IDSet{},
	PersistingIDs:      layout.IDSet{},
	ParentOfSprouting:  map[string]string{},
	ParentOfCollapsing: map[string]string{},
	entries:            map[string]entry{},
	during:             layout.IDSet{},
	final:              layout.IDSet{},
}

// Empty returns a state with no nodes. Its visible set is empty for every t.
func Empty() *State { return empty }

// Len returns the number of nodes taking part in the transition.
func (s *State) Len() int { return len(s.entries) }

// PhaseOf returns the phase of id.
func (s *State) PhaseOf(id string) Phase { return s.entries[id].phase }

// PositionAt returns where id is drawn at time t. Unknown ids, and nodes
// missing the position their phase requires, sit at the origin.
func (s *State) PositionAt(id string, t float64) layout.Point {
	e, ok := s.entries[id]
	if !ok || e.broken {
		return layout.Point{}
	}
	return e.from.Lerp(e.to, clamp(t))
}

// OpacityAt returns the opacity of id at time t: 1 for persisting nodes,
// t for sprouting nodes and 1-t for collapsing ones. Unknown ids are opaque.
func (s *State) OpacityAt(id string, t float64) float64 {
	e := s.entries[id]
	if e.broken {
		return 1
	}
	switch e.phase {
	case PhaseSprouting:
		return clamp(t)
	case PhaseCollapsing:
		return 1 - clamp(t)
	default:
		return 1
	}
}

// VisibleIDsAt returns the ids to draw at time t: persisting and sprouting
// nodes always, collapsing nodes while t < 1. The returned set is shared and
// must not be modified.
func (s *State) VisibleIDsAt(t float64) layout.IDSet {
	if clamp(t) < 1 {
		return s.during
	}
	return s.final
}

// IsVisibleAt reports whether id is drawn at time t.
func (s *State) IsVisibleAt(id string, t float64) bool {
	return s.VisibleIDsAt(t).Has(id)
}

func clamp(t float64) float64 {
	switch {
	case t != t, t < 0: // NaN counts as the start
		return 0
	case t > 1:
		return 1
	default:
		return t
	}
}
