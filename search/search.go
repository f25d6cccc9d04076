// Package search implements one game tree of a batched PUCT/MCTS engine: the
// Search type owns a root, a node pool with freelist, and the per-game
// history of committed moves. It never talks to an evaluator directly -
// callers (typically a batch.Driver) pull leaves out with SelectLeaf and push
// evaluations back in with ExpandLeaf.
package search

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config bundles the PUCT constants, for callers (selfplay, dualnet) that
// want to serialize them alongside a checkpoint rather than thread two bare
// float64s through their own config structs.
type Config struct {
	CInit float64 `json:"c_init"`
	CBase float64 `json:"c_base"`
}

// MoveProb is one entry of a HistoryEntry's recorded search probabilities.
type MoveProb[M comparable] struct {
	Move        M
	Probability float64
}

// HistoryEntry records the position at the root and the search-derived move
// probabilities at the moment a move was committed there.
type HistoryEntry[S any, M comparable] struct {
	State         S
	Probabilities []MoveProb[M]
}

// ExpansionEntry is one child an evaluator wants installed under a leaf:
// the move that reaches it, the resulting game state, and the policy prior.
type ExpansionEntry[M comparable, S any] struct {
	Move  M
	State S
	Prior float64
}

// LeafHandle is a non-owning reference to an unexpanded node returned by
// SelectLeaf. It is valid only until the next mutating call on the Search
// that produced it (ExpandLeaf, MoveGreedy, MoveProportional, CollectResult,
// or Reset); using it afterwards panics with a ContractViolationError.
type LeafHandle[S any, M comparable] struct {
	idx nodeIndex
	gen uint64
}

// Present reports whether the handle refers to an actual unexpanded node, as
// opposed to the "absent" result SelectLeaf returns when it bottoms out at a
// terminal instead.
func (l LeafHandle[S, M]) Present() bool { return l.idx != noIndex }

// Search owns one game tree: the root, its node pool and freelist, the
// sequence of HistoryEntry produced by committed moves, and a per-Search
// PRNG used for move_proportional sampling and Dirichlet noise.
type Search[S any, M comparable] struct {
	pool *pool[S, M]
	root nodeIndex

	history []HistoryEntry[S, M]

	cInit, cBase float64
	rng          *xrand.Rand

	searchesThisTurn int
	generation       uint64
}

// New installs a Fresh (unexpanded) root holding initialState, seeding the
// Search's PRNG from platform entropy. phonyMove is stored on the root's Move
// field purely so the node's type is uniform with every other node; it is
// never read, since the root has no move that reached it.
func New[S any, M comparable](cInit, cBase float64, initialState S, phonyMove M) *Search[S, M] {
	return newSearch[S, M](cInit, cBase, initialState, phonyMove, xrand.New(xrand.NewSource(platformSeed())))
}

// NewSeeded is the deterministic counterpart of New, for tests that need a
// reproducible tree.
func NewSeeded[S any, M comparable](cInit, cBase float64, initialState S, phonyMove M, seed uint64) *Search[S, M] {
	return newSearch[S, M](cInit, cBase, initialState, phonyMove, xrand.New(xrand.NewSource(seed)))
}

// NewFromConfig is New with the PUCT constants bundled as a Config, for
// callers that persist Config alongside a checkpoint.
func NewFromConfig[S any, M comparable](cfg Config, initialState S, phonyMove M) *Search[S, M] {
	return New[S, M](cfg.CInit, cfg.CBase, initialState, phonyMove)
}

func newSearch[S any, M comparable](cInit, cBase float64, initialState S, phonyMove M, rng *xrand.Rand) *Search[S, M] {
	s := &Search[S, M]{
		pool:  newPool[S, M](),
		cInit: cInit,
		cBase: cBase,
		rng:   rng,
	}
	s.root = s.pool.alloc()
	*s.pool.get(s.root) = Node[S, M]{Move: phonyMove, State: initialState, parent: noIndex, firstChild: noIndex, nextSibling: noIndex}
	return s
}

func platformSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint64(b[:])
	}
	return uint64(time.Now().UnixNano())
}

// GameState returns the state held at the current root.
func (s *Search[S, M]) GameState() S {
	s.requireNotCollected("game_state")
	return s.pool.get(s.root).State
}

// Expanded reports whether the root has been visited by at least one
// evaluation.
func (s *Search[S, M]) Expanded() bool {
	s.requireNotCollected("expanded")
	return s.pool.get(s.root).Expanded()
}

// Complete reports whether the root is terminal, i.e. the game at the root
// position is over.
func (s *Search[S, M]) Complete() bool {
	s.requireNotCollected("complete")
	root := s.pool.get(s.root)
	if !root.Expanded() {
		panic(newContractViolation("complete", "root is not expanded"))
	}
	return root.Terminal()
}

// Collected reports whether the root has been dropped by CollectResult.
func (s *Search[S, M]) Collected() bool { return s.root == noIndex }

// Turns returns the number of plies played so far, including the one about to
// be decided: len(history)+1.
func (s *Search[S, M]) Turns() int {
	s.requireNotCollected("turns")
	return len(s.history) + 1
}

// SearchesThisTurn returns the number of SelectLeaf calls (leaf-producing or
// terminal-revisiting) since the last committed move.
func (s *Search[S, M]) SearchesThisTurn() int { return s.searchesThisTurn }

// Size returns the number of arena slots ever allocated, an upper bound on
// live node count, exposed for observers/diagnostics only.
func (s *Search[S, M]) Size() int { return s.pool.size() }

// AddDirichletNoise mixes Dirichlet(alpha) noise into the root's children's
// priors: prior' = fraction*noise + (1-fraction)*prior. One Gamma(alpha, 1)
// sample is drawn per child and the vector is normalized to sum to 1 before
// mixing.
func (s *Search[S, M]) AddDirichletNoise(alpha, fraction float64) {
	s.requireExpandedNotComplete("add_dirichlet_noise")

	var children []nodeIndex
	for c := s.pool.get(s.root).firstChild; c != noIndex; c = s.pool.get(c).nextSibling {
		children = append(children, c)
	}
	if len(children) == 0 {
		return
	}

	gamma := distuv.Gamma{Alpha: alpha, Beta: 1, Src: s.rng}
	noise := make([]float64, len(children))
	var sum float64
	for i := range noise {
		noise[i] = gamma.Rand()
		sum += noise[i]
	}
	if sum <= 0 {
		return
	}
	for i, c := range children {
		child := s.pool.get(c)
		child.Prior = fraction*(noise[i]/sum) + (1-fraction)*child.Prior
	}
}

// SelectLeaf descends from the root via PUCT. If the descent
// reaches an unexpanded node, that node is returned as a present LeafHandle.
// If it reaches a terminal node instead, the terminal's visit count is bumped
// and its value is backpropagated to its ancestors, and SelectLeaf returns an
// absent handle.
func (s *Search[S, M]) SelectLeaf() LeafHandle[S, M] {
	s.requireNotCollected("select_leaf")
	s.searchesThisTurn++

	cur := s.root
	for {
		node := s.pool.get(cur)
		if !node.Expanded() {
			return LeafHandle[S, M]{idx: cur, gen: s.generation}
		}
		if node.firstChild == noIndex {
			node.visits++
			v := -node.totalAV
			parent := node.parent
			s.backpropFromParent(parent, v)
			s.generation++
			return LeafHandle[S, M]{idx: noIndex, gen: s.generation}
		}
		cur = s.puctBestChild(cur)
	}
}

// puctBestChild picks the child maximizing Q(c)+U(c). The first candidate
// unconditionally becomes the incumbent (best_score starts at 0 but is not
// used as a real bound), and ties are broken in favor of the earliest sibling
// by requiring a strictly greater score to replace the incumbent. This
// ordering is load-bearing for reproducibility across runs with the same
// seed.
func (s *Search[S, M]) puctBestChild(parentIdx nodeIndex) nodeIndex {
	parent := s.pool.get(parentIdx)
	nParent := float64(parent.visits)
	uCoeff := math.Log((1+nParent+s.cBase)/s.cBase) + s.cInit
	sqrtParent := math.Sqrt(nParent)

	var best nodeIndex = noIndex
	var bestScore float64
	first := true
	for c := parent.firstChild; c != noIndex; c = s.pool.get(c).nextSibling {
		child := s.pool.get(c)
		var q float64
		if child.visits > 0 {
			q = child.totalAV / float64(child.visits)
		}
		u := uCoeff * child.Prior * sqrtParent / (1 + float64(child.visits))
		score := q + u
		if first || score > bestScore {
			best, bestScore, first = c, score, false
		}
	}
	return best
}

// LeafState returns the game state held at a leaf returned by SelectLeaf. It
// panics if the handle is absent or stale.
func (s *Search[S, M]) LeafState(leaf LeafHandle[S, M]) S {
	idx := s.validateLeaf(leaf, "leaf_state")
	return s.pool.get(idx).State
}

// ExpandLeaf installs leaf's children and backpropagates value to its
// ancestors. Passing an empty expansion is legal and
// produces a terminal leaf.
//
// All children are allocated before any of them is wired up; if the pool
// panics partway through allocation (see AllocationError), every child
// allocated so far for this call is freed again and the leaf is left exactly
// as unexpanded as it was on entry.
func (s *Search[S, M]) ExpandLeaf(leaf LeafHandle[S, M], value float64, expansion []ExpansionEntry[M, S]) {
	idx := s.validateLeaf(leaf, "expand_leaf")
	if s.pool.get(idx).Expanded() {
		panic(newContractViolation("expand_leaf", "leaf is already expanded"))
	}

	childIdxs := make([]nodeIndex, len(expansion))
	allocated := 0
	func() {
		defer func() {
			if r := recover(); r != nil {
				for i := 0; i < allocated; i++ {
					s.pool.free(childIdxs[i])
				}
				panic(newAllocationError(r))
			}
		}()
		for i := range expansion {
			childIdxs[i] = s.pool.alloc()
			allocated++
		}
	}()

	// No more allocations occur below, so pointers into the arena are stable
	// for the remainder of this call.
	leafNode := s.pool.get(idx)
	prev := noIndex
	for i, e := range expansion {
		ci := childIdxs[i]
		*s.pool.get(ci) = Node[S, M]{Move: e.Move, State: e.State, Prior: e.Prior, parent: idx, firstChild: noIndex, nextSibling: noIndex}
		if i == 0 {
			leafNode.firstChild = ci
		} else {
			s.pool.get(prev).nextSibling = ci
		}
		prev = ci
	}

	leafNode.visits = 1
	leafNode.totalAV = value
	parent := leafNode.parent
	s.generation++
	s.backpropFromParent(parent, -value)
}

// backpropFromParent implements the ancestors-only half of backpropagation:
// starting at n (which may be absent, in which
// case this is a no-op), add v to n's total_av and 1 to its visits, then
// negate v and move to n's parent.
func (s *Search[S, M]) backpropFromParent(n nodeIndex, v float64) {
	for n != noIndex {
		node := s.pool.get(n)
		node.visits++
		node.totalAV += v
		v = -v
		n = node.parent
	}
}

// validateLeaf checks that leaf refers to a real, still-current node and
// returns its index, panicking with a ContractViolationError otherwise.
func (s *Search[S, M]) validateLeaf(leaf LeafHandle[S, M], op string) nodeIndex {
	if !leaf.Present() {
		panic(newContractViolation(op, "leaf handle is absent"))
	}
	if leaf.gen != s.generation {
		panic(newContractViolation(op, "leaf handle is stale: a mutating call happened since it was issued"))
	}
	return leaf.idx
}

// MoveGreedy commits the child with the strictly largest visit count, ties
// broken toward the earliest sibling.
func (s *Search[S, M]) MoveGreedy() M {
	s.requireExpandedNotComplete("move_greedy")
	root := s.pool.get(s.root)

	var best nodeIndex = noIndex
	bestVisits := int32(-1)
	for c := root.firstChild; c != noIndex; c = s.pool.get(c).nextSibling {
		child := s.pool.get(c)
		if child.visits > bestVisits {
			best, bestVisits = c, child.visits
		}
	}

	move := s.pool.get(best).Move
	s.commit(best)
	return move
}

// MoveProportional commits a child sampled with probability proportional to
// its visit count. When root.n_visits == 1 it falls back
// to sampling uniformly among children via reservoir sampling.
func (s *Search[S, M]) MoveProportional() M {
	s.requireExpandedNotComplete("move_proportional")
	root := s.pool.get(s.root)

	var chosen nodeIndex
	if root.visits == 1 {
		chosen = s.reservoirSampleChild()
	} else {
		draw := s.rng.Int63n(int64(root.visits - 1))
		var cum int64
		chosen = noIndex
		for c := root.firstChild; c != noIndex; c = s.pool.get(c).nextSibling {
			cum += int64(s.pool.get(c).visits)
			if draw < cum {
				chosen = c
				break
			}
		}
		if chosen == noIndex {
			// Numerical edge case (floating accumulation can't occur here
			// since visits are integers, but guard anyway): fall back to the
			// last child in sibling order.
			for c := root.firstChild; c != noIndex; c = s.pool.get(c).nextSibling {
				chosen = c
			}
		}
	}

	move := s.pool.get(chosen).Move
	s.commit(chosen)
	return move
}

// reservoirSampleChild samples a child uniformly at random via reservoir
// sampling: the k-th child replaces the running choice with probability 1/k.
func (s *Search[S, M]) reservoirSampleChild() nodeIndex {
	root := s.pool.get(s.root)
	var chosen nodeIndex = noIndex
	k := 0
	for c := root.firstChild; c != noIndex; c = s.pool.get(c).nextSibling {
		k++
		if s.rng.Intn(k) == 0 {
			chosen = c
		}
	}
	return chosen
}

// CollectResult finalizes the search: computes the score from the player's
// perspective at the initial position, records one last HistoryEntry for the
// final root position, frees the whole tree, and transitions to Collected.
func (s *Search[S, M]) CollectResult() (float64, []HistoryEntry[S, M]) {
	s.requireNotCollected("collect_result")
	root := s.pool.get(s.root)

	var score float64
	if root.Terminal() {
		score = root.totalAV
	}

	s.commit(noIndex)
	if len(s.history)%2 == 0 {
		score = -score
	}

	hist := s.history
	s.history = nil
	return score, hist
}

// Reset drops the current root and history (freeing the tree back into the
// freelist, which survives the reset) and reinstalls a Fresh root.
func (s *Search[S, M]) Reset(initialState S, phonyMove M) {
	if s.root != noIndex {
		s.pool.freeSubtree(s.root)
	}
	s.root = s.pool.alloc()
	*s.pool.get(s.root) = Node[S, M]{Move: phonyMove, State: initialState, parent: noIndex, firstChild: noIndex, nextSibling: noIndex}
	s.history = nil
	s.searchesThisTurn = 0
	s.generation++
}

// commit implements the shared bookkeeping of committing a move and of
// collecting the final result: record search probabilities
// for the current root's children, free every child except newRoot (all of
// them, if newRoot is absent), append the HistoryEntry, and either adopt
// newRoot or - if absent - free the root itself and enter Collected.
func (s *Search[S, M]) commit(newRoot nodeIndex) {
	root := s.pool.get(s.root)
	denom := int64(root.visits) - 1

	var probs []MoveProb[M]
	for c := root.firstChild; c != noIndex; c = s.pool.get(c).nextSibling {
		child := s.pool.get(c)
		var p float64
		if denom > 0 {
			p = float64(child.visits) / float64(denom)
		}
		probs = append(probs, MoveProb[M]{Move: child.Move, Probability: p})
	}

	c := root.firstChild
	for c != noIndex {
		next := s.pool.get(c).nextSibling
		if c != newRoot {
			s.pool.freeSubtree(c)
		}
		c = next
	}

	s.history = append(s.history, HistoryEntry[S, M]{State: root.State, Probabilities: probs})

	oldRoot := s.root
	if newRoot != noIndex {
		nr := s.pool.get(newRoot)
		nr.parent = noIndex
		nr.nextSibling = noIndex
		s.pool.free(oldRoot)
		s.root = newRoot
	} else {
		s.pool.free(oldRoot)
		s.root = noIndex
	}
	s.searchesThisTurn = 0
	s.generation++
}

func (s *Search[S, M]) requireNotCollected(op string) {
	if s.root == noIndex {
		panic(newContractViolation(op, "search has already been collected"))
	}
}

func (s *Search[S, M]) requireExpandedNotComplete(op string) {
	s.requireNotCollected(op)
	root := s.pool.get(s.root)
	if !root.Expanded() {
		panic(newContractViolation(op, "root is not expanded"))
	}
	if root.Terminal() {
		panic(newContractViolation(op, "root is terminal: search is already complete"))
	}
}
