package search

// nodeIndex is an index into a pool's node arena. noIndex stands for the
// "absent" node: a null parent, an empty child list, or a collected root.
type nodeIndex int32

const noIndex nodeIndex = -1

// Node is one slot of the arena. It is intrusive: sibling lists are threaded
// through nextSibling, and the freelist is threaded through nextFree, so no
// separate bookkeeping structure is needed to track either.
//
// Node is never exposed outside the package by value or pointer; callers only
// ever see a LeafHandle (a leaf awaiting expansion) or a NodeView (a read-only
// snapshot), both of which copy out whatever fields they need.
type Node[S any, M comparable] struct {
	Move  M
	State S
	Prior float64

	parent      nodeIndex
	firstChild  nodeIndex
	nextSibling nodeIndex
	nextFree    nodeIndex

	visits  int32
	totalAV float64
}

// Expanded reports whether the node has been visited by an evaluation, i.e.
// whether it has committed children (possibly zero of them).
func (n *Node[S, M]) Expanded() bool { return n.visits > 0 }

// Terminal reports whether the node is expanded but has no children: an
// evaluated game-over position.
func (n *Node[S, M]) Terminal() bool { return n.Expanded() && n.firstChild == noIndex }

// Visits returns the node's visit count, n_visits.
func (n *Node[S, M]) Visits() int32 { return n.visits }

// TotalActionValue returns the node's accumulated action-value, total_av.
func (n *Node[S, M]) TotalActionValue() float64 { return n.totalAV }
