package selfplay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as3richa/alpha3/batch"
	"github.com/as3richa/alpha3/search"
)

type move int

// fakeState satisfies dualnet.GameState[fakeState, move] just enough to
// instantiate a Trainer in these tests; convert/push never call either
// method.
type fakeState string

func (s fakeState) LegalMoves() []move         { return nil }
func (s fakeState) Apply(m move) fakeState     { return s }

type actionSpace struct{ n int }

func (a actionSpace) Size() int                { return a.n }
func (a actionSpace) Index(m move) (int, bool) { return int(m), int(m) >= 0 && int(m) < a.n }
func (a actionSpace) Move(idx int) move        { return move(idx) }

func newTestTrainer() *Trainer[fakeState, move] {
	return &Trainer[fakeState, move]{
		actions: actionSpace{n: 3},
		enc:     func(s fakeState) []float32 { return []float32{float32(len(s))} },
	}
}

func TestConvertDropsTheTerminalOnlyEntry(t *testing.T) {
	tr := newTestTrainer()
	res := batch.Result[move, fakeState]{
		Score: 1,
		History: []search.HistoryEntry[fakeState, move]{
			{State: "only-terminal", Probabilities: nil},
		},
	}

	exs, err := tr.convert(res)
	require.NoError(t, err)
	assert.Nil(t, exs)
}

func TestConvertAlternatesValueSignByPly(t *testing.T) {
	tr := newTestTrainer()
	res := batch.Result[move, fakeState]{
		Score: 0.5,
		History: []search.HistoryEntry[fakeState, move]{
			{State: "ply0", Probabilities: []search.MoveProb[move]{{Move: 0, Probability: 1}}},
			{State: "ply1", Probabilities: []search.MoveProb[move]{{Move: 2, Probability: 1}}},
			{State: "terminal", Probabilities: nil},
		},
	}

	exs, err := tr.convert(res)
	require.NoError(t, err)
	require.Len(t, exs, 2)

	assert.Equal(t, float32(0.5), exs[0].Value)
	assert.Equal(t, float32(-0.5), exs[1].Value)

	assert.Equal(t, []float32{1, 0, 0}, exs[0].Policy)
	assert.Equal(t, []float32{0, 0, 1}, exs[1].Policy)
}

func TestConvertRejectsAMoveOutsideTheActionSpace(t *testing.T) {
	tr := newTestTrainer()
	res := batch.Result[move, fakeState]{
		Score: 0,
		History: []search.HistoryEntry[fakeState, move]{
			{State: "ply0", Probabilities: []search.MoveProb[move]{{Move: 99, Probability: 1}}},
			{State: "terminal", Probabilities: nil},
		},
	}

	_, err := tr.convert(res)
	assert.Error(t, err)
}

func TestPushTrimsToMaxExamples(t *testing.T) {
	tr := newTestTrainer()
	tr.maxExamples = 3

	tr.push([]Example{{Value: 1}, {Value: 2}})
	tr.push([]Example{{Value: 3}, {Value: 4}})

	require.Len(t, tr.examples, 3)
	assert.Equal(t, []float32{2, 3, 4}, valuesOf(tr.examples))
}

func TestPushIsUnboundedWhenMaxExamplesIsZero(t *testing.T) {
	tr := newTestTrainer()
	tr.push([]Example{{Value: 1}, {Value: 2}, {Value: 3}})
	assert.Len(t, tr.examples, 3)
}

func valuesOf(exs []Example) []float32 {
	out := make([]float32, len(exs))
	for i, e := range exs {
		out[i] = e.Value
	}
	return out
}
