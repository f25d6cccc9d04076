package chess_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as3richa/alpha3/game/chess"
)

func TestStartingPositionHasTwentyLegalMoves(t *testing.T) {
	s := chess.New()
	moves := s.LegalMoves()
	assert.Len(t, moves, 20)

	over, _ := s.Terminal()
	assert.False(t, over)
}

func TestApplyDoesNotMutateTheOriginalState(t *testing.T) {
	s := chess.New()
	moves := s.LegalMoves()
	require.NotEmpty(t, moves)

	next := s.Apply(moves[0])
	assert.NotEqual(t, s.FEN(), next.FEN())
	assert.Len(t, s.LegalMoves(), 20, "applying a move to next must not affect s")
}

func TestFoolsMateIsTerminalForWhite(t *testing.T) {
	s := chess.New()
	for _, m := range []chess.Move{"f2f3", "e7e5", "g2g4", "d8h4"} {
		s = s.Apply(m)
	}

	over, value := s.Terminal()
	require.True(t, over)
	assert.Equal(t, -1.0, value, "white, to move, has just been checkmated")
}

func TestIllegalMovePanics(t *testing.T) {
	s := chess.New()
	assert.Panics(t, func() { s.Apply("a1a8") })
}

func TestActionSpaceRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/moves.txt"
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{"e2e4", "e7e5", "g1f3"}, "\n")+"\n"), 0o644))

	as, err := chess.LoadActionSpace(path)
	require.NoError(t, err)
	require.Equal(t, 3, as.Size())

	idx, ok := as.Index("e7e5")
	require.True(t, ok)
	assert.Equal(t, chess.Move("e7e5"), as.Move(idx))

	_, ok = as.Index("h8h1")
	assert.False(t, ok)
}
