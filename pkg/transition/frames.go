package transition

import (
	"slices"
	"time"
)

// NodeFrame is one node's drawing state in a sampled frame.
type NodeFrame struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Opacity float64 `json:"opacity"`
	Phase   string  `json:"phase"`
}

// Frame is the state of every drawn node at one instant.
type Frame struct {
	T     float64     `json:"t"`
	Nodes []NodeFrame `json:"nodes"`
}

// Sample evaluates s at frames evenly spaced instants from 0 to 1 inclusive,
// for renderers that replay precomputed keyframes. frames below 2 are raised
// to 2. Nodes within a frame are sorted by id.
func Sample(s *State, frames int) []Frame {
	frames = max(frames, 2)
	out := make([]Frame, frames)
	for i := range frames {
		t := float64(i) / float64(frames-1)
		visible := s.VisibleIDsAt(t)
		ids := make([]string, 0, len(visible))
		for id := range visible {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		f := Frame{T: t, Nodes: make([]NodeFrame, len(ids))}
		for k, id := range ids {
			p := s.PositionAt(id, t)
			f.Nodes[k] = NodeFrame{
				ID:      id,
				X:       p.X,
				Y:       p.Y,
				Opacity: s.OpacityAt(id, t),
				Phase:   s.PhaseOf(id).String(),
			}
		}
		out[i] = f
	}
	return out
}

// EaseInOut maps linear progress to a cubic ease-in-out curve. Renderers apply
// it to wall-clock progress before querying a State.
func EaseInOut(t float64) float64 {
	t = clamp(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// Progress converts elapsed time into linear progress in [0,1]. A non-positive
// duration completes immediately.
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	return clamp(float64(elapsed) / float64(duration))
}
