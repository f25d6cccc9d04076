package dualnet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as3richa/alpha3/dualnet"
	"github.com/as3richa/alpha3/game/tictactoe"
)

// identityActionSpace treats a tictactoe square index as its own policy slot.
type identityActionSpace struct{ n int }

func (a identityActionSpace) Size() int { return a.n }
func (a identityActionSpace) Index(m tictactoe.Move) (int, bool) {
	if int(m) < 0 || int(m) >= a.n {
		return 0, false
	}
	return int(m), true
}
func (a identityActionSpace) Move(idx int) tictactoe.Move { return tictactoe.Move(idx) }

func encodeBoard(s tictactoe.State) []float64 {
	feats := make([]float64, 9)
	for i := tictactoe.Move(0); i < 9; i++ {
		switch s.At(i) {
		case tictactoe.X:
			feats[i] = 1
		case tictactoe.O:
			feats[i] = -1
		}
	}
	return feats
}

func newTestNet(t *testing.T) *dualnet.Net[tictactoe.State, tictactoe.Move] {
	t.Helper()
	cfg := dualnet.DefaultConfig(9, 9)
	cfg.BatchSize = 4
	net := dualnet.New[tictactoe.State, tictactoe.Move](cfg, encodeBoard, identityActionSpace{9})
	require.NoError(t, net.Init())
	return net
}

func TestEvaluateReturnsOneExpansionPerState(t *testing.T) {
	net := newTestNet(t)
	states := []tictactoe.State{tictactoe.New(), tictactoe.New().Apply(0)}

	out, err := net.Evaluate(context.Background(), states)
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i, exp := range out {
		assert.GreaterOrEqual(t, exp.Value, -1.0)
		assert.LessOrEqual(t, exp.Value, 1.0)
		assert.Len(t, exp.Children, len(states[i].LegalMoves()))
	}
}

func TestEvaluateRejectsOversizedBatch(t *testing.T) {
	net := newTestNet(t)
	states := make([]tictactoe.State, 5) // cfg.BatchSize is 4
	for i := range states {
		states[i] = tictactoe.New()
	}

	_, err := net.Evaluate(context.Background(), states)
	require.Error(t, err)
}

func TestEvaluateOnCancelledContextReturnsError(t *testing.T) {
	net := newTestNet(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := net.Evaluate(ctx, []tictactoe.State{tictactoe.New()})
	require.Error(t, err)
}
