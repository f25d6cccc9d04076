// Package selfplay drives batched self-play games through a batch.Driver and
// turns the results into training examples. It stops short of the actual
// gradient step (non-goal): RunEpisodes leaves training the net's weights to
// whatever external loop wants to own that.
package selfplay

import (
	"context"
	"log"
	"math/rand"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/as3richa/alpha3/batch"
	"github.com/as3richa/alpha3/dualnet"
	"github.com/as3richa/alpha3/game"
)

// Example is one training example: an encoded board, the search-derived move
// distribution over the action space, and the game-theoretic value of the
// position from the perspective of the player to move there.
type Example struct {
	Board  []float32
	Policy []float32
	Value  float32
}

// Trainer owns a reference evaluator, the action space it shares with that
// evaluator, and a bounded ring buffer of Examples accumulated across calls
// to RunEpisodes.
type Trainer[S dualnet.GameState[S, M], M comparable] struct {
	net     *dualnet.Net[S, M]
	actions dualnet.ActionSpace[M]
	enc     game.Encoder[S]

	driverCfg    batch.Config
	initialState S
	phonyMove    M

	maxExamples int
	examples    []Example

	logger *log.Logger
}

// NewTrainer builds a Trainer around an already-Init'd net. driverCfg.NGames
// is overwritten per call to RunEpisodes and need not be set here.
func NewTrainer[S dualnet.GameState[S, M], M comparable](
	net *dualnet.Net[S, M],
	actions dualnet.ActionSpace[M],
	enc game.Encoder[S],
	driverCfg batch.Config,
	initialState S,
	phonyMove M,
	maxExamples int,
	logger *log.Logger,
) *Trainer[S, M] {
	if logger == nil {
		logger = log.Default()
	}
	return &Trainer[S, M]{
		net:          net,
		actions:      actions,
		enc:          enc,
		driverCfg:    driverCfg,
		initialState: initialState,
		phonyMove:    phonyMove,
		maxExamples:  maxExamples,
		logger:       logger,
	}
}

// Examples returns the examples accumulated so far. The slice is owned by
// the Trainer; callers that want to keep it across a further RunEpisodes
// call should copy it.
func (t *Trainer[S, M]) Examples() []Example {
	return t.examples
}

// RunEpisodes plays nGames batched self-play games to completion through a
// fresh batch.Driver and appends the resulting training examples to the
// buffer. A game whose history can't be converted (an unrecognized move, for
// instance, which signals a mismatch between actions and the evaluator that
// produced the game) is skipped rather than aborting the whole batch; every
// such failure is accumulated and returned together via go-multierror rather
// than just the first.
func (t *Trainer[S, M]) RunEpisodes(ctx context.Context, nGames int) error {
	cfg := t.driverCfg
	cfg.NGames = nGames

	driver := batch.NewSeeded[S, M](cfg, t.initialState, t.phonyMove, t.net, randSeed())
	results, err := driver.Run(ctx)
	if err != nil {
		return errors.Wrap(err, "selfplay: running episodes")
	}

	var (
		errs     *multierror.Error
		produced int
	)
	newExamples := make([]Example, 0, nGames*8)
	for i, res := range results {
		exs, err := t.convert(res)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "selfplay: game %d", i))
			continue
		}
		newExamples = append(newExamples, exs...)
		produced++
	}

	t.push(newExamples)
	t.logger.Printf("selfplay: ran %d games, %d converted cleanly, %d examples, buffer now %d",
		nGames, produced, len(newExamples), len(t.examples))

	return errs.ErrorOrNil()
}

// convert turns one batch.Result's history into Examples. The final history
// entry is the terminal position itself (no move was chosen there, so it
// carries no search policy) and is excluded. Value alternates sign by ply
// since res.Score is already expressed from history[0]'s player's
// perspective, and the game strictly alternates movers.
func (t *Trainer[S, M]) convert(res batch.Result[M, S]) ([]Example, error) {
	if len(res.History) <= 1 {
		return nil, nil
	}

	plies := res.History[:len(res.History)-1]
	out := make([]Example, 0, len(plies))
	for i, entry := range plies {
		policy := make([]float32, t.actions.Size())
		for _, mp := range entry.Probabilities {
			idx, ok := t.actions.Index(mp.Move)
			if !ok {
				return nil, errors.Errorf("move %v is not in the action space", mp.Move)
			}
			policy[idx] = float32(mp.Probability)
		}

		value := res.Score
		if i%2 == 1 {
			value = -value
		}

		out = append(out, Example{
			Board:  t.enc(entry.State),
			Policy: policy,
			Value:  float32(value),
		})
	}
	return out, nil
}

// push appends fresh examples to the buffer, dropping the oldest entries
// once it exceeds maxExamples. maxExamples <= 0 means unbounded.
func (t *Trainer[S, M]) push(fresh []Example) {
	t.examples = append(t.examples, fresh...)
	if t.maxExamples > 0 && len(t.examples) > t.maxExamples {
		t.examples = t.examples[len(t.examples)-t.maxExamples:]
	}
}

func randSeed() uint64 {
	return uint64(rand.Int63())
}
