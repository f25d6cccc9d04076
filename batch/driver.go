// Package batch implements BatchDriver: it owns a vector of search.Search
// instances and drives them in lock-step against an external evaluator,
// amortizing the evaluator's cost across every game in flight rather than
// calling it once per leaf.
package batch

import (
	"context"

	"github.com/as3richa/alpha3/search"
)

// Expansion is one evaluator response: the value estimate for the
// evaluated state and the children to install under the leaf it came from.
// An empty Children slice is legal and marks the leaf terminal.
type Expansion[M comparable, S any] struct {
	Value    float64
	Children []search.ExpansionEntry[M, S]
}

// Evaluator is the only collaborator BatchDriver blocks on. It must return
// exactly one Expansion per input state, in input order; ctx carries
// cancellation the way the rest of the pack threads it through blocking
// calls, though the core itself never cancels on its own.
type Evaluator[S any, M comparable] interface {
	Evaluate(ctx context.Context, states []S) ([]Expansion[M, S], error)
}

// Result is the (score, history) pair a Driver produces for one completed
// game.
type Result[M comparable, S any] struct {
	Score   float64
	History []search.HistoryEntry[S, M]
}

// Config bundles the Driver's construction-time parameters.
type Config struct {
	NGames       int     `json:"n_games"`
	NEvaluations int     `json:"n_evaluations"`
	CInit        float64 `json:"c_init"`
	CBase        float64 `json:"c_base"`
}

type slot[S any, M comparable] struct {
	search    *search.Search[S, M]
	collected bool
}

// Driver owns n_games independent Search trees and runs the per-cycle and
// turn-commit protocol against one Evaluator.
type Driver[S any, M comparable] struct {
	slots        []slot[S, M]
	evaluator    Evaluator[S, M]
	nEvaluations int
	results      []Result[M, S]
}

// New constructs a Driver with cfg.NGames independent Search trees, each
// seeded separately from platform entropy and starting from initialState.
func New[S any, M comparable](cfg Config, initialState S, phonyMove M, evaluator Evaluator[S, M]) *Driver[S, M] {
	d := &Driver[S, M]{
		evaluator:    evaluator,
		nEvaluations: cfg.NEvaluations,
		results:      make([]Result[M, S], cfg.NGames),
	}
	for i := 0; i < cfg.NGames; i++ {
		s := search.New[S, M](cfg.CInit, cfg.CBase, initialState, phonyMove)
		d.slots = append(d.slots, slot[S, M]{search: s})
	}
	return d
}

// NewSeeded is the deterministic counterpart of New, recommended for tests:
// game i's Search is seeded with seed+uint64(i).
func NewSeeded[S any, M comparable](cfg Config, initialState S, phonyMove M, evaluator Evaluator[S, M], seed uint64) *Driver[S, M] {
	d := &Driver[S, M]{
		evaluator:    evaluator,
		nEvaluations: cfg.NEvaluations,
		results:      make([]Result[M, S], cfg.NGames),
	}
	for i := 0; i < cfg.NGames; i++ {
		s := search.NewSeeded[S, M](cfg.CInit, cfg.CBase, initialState, phonyMove, seed+uint64(i))
		d.slots = append(d.slots, slot[S, M]{search: s})
	}
	return d
}

// Run drives every game to completion: repeating evaluation cycles exactly
// NEvaluations times per turn, committing a move on every still-active game,
// and collecting any game whose root has become terminal, until every game
// is Collected. It returns the ordered per-game (score, history) results, or
// the first EvaluatorError encountered - at which point the Driver is no
// longer usable. A cycle with no active game producing a fresh leaf (every
// active game is soaking an already-explored terminal) still invokes the
// evaluator once, with an empty batch, so a turn always spends its full
// NEvaluations cycles regardless of how quickly games reach a terminal leaf.
func (d *Driver[S, M]) Run(ctx context.Context) ([]Result[M, S], error) {
	d.collectFinished()
	for !d.allCollected() {
		for cycle := 0; cycle < d.nEvaluations; cycle++ {
			if _, err := d.applyCycle(ctx); err != nil {
				return nil, err
			}
		}
		d.commitTurn()
		d.collectFinished()
	}
	return d.results, nil
}

type pendingLeaf[S any, M comparable] struct {
	gameIdx int
	leaf    search.LeafHandle[S, M]
}

// applyCycle runs exactly one evaluation cycle: collect one leaf per active
// game, invoke the evaluator once on the whole batch (possibly empty, if
// every active game is soaking an already-explored terminal this cycle
// rather than producing a fresh leaf), apply the results back in order. The
// returned bool reports whether any game actually produced a leaf this
// cycle; Run doesn't use it to cut a turn short, since a turn's cycle count
// is fixed at NEvaluations regardless.
func (d *Driver[S, M]) applyCycle(ctx context.Context) (bool, error) {
	var pending []pendingLeaf[S, M]
	var states []S

	for i := range d.slots {
		sl := &d.slots[i]
		if sl.collected || d.isComplete(sl) {
			continue
		}
		leaf := sl.search.SelectLeaf()
		if !leaf.Present() {
			continue
		}
		pending = append(pending, pendingLeaf[S, M]{gameIdx: i, leaf: leaf})
		states = append(states, sl.search.LeafState(leaf))
	}

	expansions, err := d.evaluator.Evaluate(ctx, states)
	if err != nil {
		return false, newEvaluatorError(err)
	}
	if len(expansions) != len(states) {
		return false, newEvaluatorShapeError(len(states), len(expansions))
	}

	for i, p := range pending {
		e := expansions[i]
		d.slots[p.gameIdx].search.ExpandLeaf(p.leaf, e.Value, e.Children)
	}
	return len(states) > 0, nil
}

// commitTurn commits one move, via move_proportional (the self-play
// default), on every game whose root is expanded but not yet terminal.
func (d *Driver[S, M]) commitTurn() {
	for i := range d.slots {
		sl := &d.slots[i]
		if sl.collected || !sl.search.Expanded() || sl.search.Complete() {
			continue
		}
		sl.search.MoveProportional()
	}
}

// collectFinished calls collect_result on every game whose root has become
// terminal and hasn't already been collected.
func (d *Driver[S, M]) collectFinished() {
	for i := range d.slots {
		sl := &d.slots[i]
		if sl.collected || !d.isComplete(sl) {
			continue
		}
		score, history := sl.search.CollectResult()
		d.results[i] = Result[M, S]{Score: score, History: history}
		sl.collected = true
	}
}

func (d *Driver[S, M]) isComplete(sl *slot[S, M]) bool {
	return sl.search.Expanded() && sl.search.Complete()
}

func (d *Driver[S, M]) allCollected() bool {
	for i := range d.slots {
		if !d.slots[i].collected {
			return false
		}
	}
	return true
}
