package tictactoe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as3richa/alpha3/game/tictactoe"
)

func TestFreshBoardHasNineLegalMoves(t *testing.T) {
	s := tictactoe.New()
	assert.Len(t, s.LegalMoves(), 9)
	assert.Equal(t, tictactoe.X, s.Turn())
	over, _ := s.Terminal()
	assert.False(t, over)
}

func TestTopRowWinIsTerminalForTheLoser(t *testing.T) {
	s := tictactoe.New()
	// X: 0,1,2 (top row); O: 3,4 in between moves.
	s = s.Apply(0) // X
	s = s.Apply(3) // O
	s = s.Apply(1) // X
	s = s.Apply(4) // O
	s = s.Apply(2) // X completes top row

	require.Equal(t, tictactoe.X, s.Winner())
	require.Equal(t, tictactoe.O, s.Turn())

	over, value := s.Terminal()
	require.True(t, over)
	assert.Equal(t, -1.0, value, "the side to move (O) just lost")
}

func TestFullBoardWithNoWinnerIsADraw(t *testing.T) {
	// X O X
	// X O O
	// O X X
	moves := []tictactoe.Move{0, 1, 2, 4, 3, 5, 7, 6, 8}
	s := tictactoe.New()
	for _, m := range moves {
		s = s.Apply(m)
	}

	require.True(t, s.Full())
	require.Equal(t, tictactoe.Empty, s.Winner())

	over, value := s.Terminal()
	require.True(t, over)
	assert.Equal(t, 0.0, value)
}

func TestApplyToOccupiedSquarePanics(t *testing.T) {
	s := tictactoe.New()
	s = s.Apply(0)
	assert.Panics(t, func() { s.Apply(0) })
}

func TestStateIsCopiedByValue(t *testing.T) {
	a := tictactoe.New()
	b := a.Apply(0)

	assert.Equal(t, tictactoe.Empty, a.At(0), "applying to b must not mutate a")
	assert.Equal(t, tictactoe.X, b.At(0))
}
