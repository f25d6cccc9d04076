package search

// NodeView is a read-only, fully-materialized copy of one node and its
// descendants, used by diagnostic consumers (treeviz) that must not hold a
// reference into a Search's arena across a mutating call.
type NodeView[S any, M comparable] struct {
	Move     M
	State    S
	Prior    float64
	Visits   int32
	TotalAV  float64
	Children []NodeView[S, M]
}

// Snapshot walks the whole tree and returns a deep, arena-independent copy
// rooted at the current root. It never mutates the Search and never errors.
func (s *Search[S, M]) Snapshot() NodeView[S, M] {
	s.requireNotCollected("snapshot")
	return s.snapshotNode(s.root)
}

func (s *Search[S, M]) snapshotNode(idx nodeIndex) NodeView[S, M] {
	n := s.pool.get(idx)
	view := NodeView[S, M]{
		Move:    n.Move,
		State:   n.State,
		Prior:   n.Prior,
		Visits:  n.visits,
		TotalAV: n.totalAV,
	}
	for c := n.firstChild; c != noIndex; c = s.pool.get(c).nextSibling {
		view.Children = append(view.Children, s.snapshotNode(c))
	}
	return view
}
