// Package chess adapts github.com/notnil/chess to the search/batch generic
// contract. Unlike tictactoe, a State here is cheap to copy (one pointer)
// but never mutated after construction: Apply always clones the underlying
// *chess.Game before making the move, so two States never alias a position.
package chess

import (
	"fmt"

	nchess "github.com/notnil/chess"
)

// Move is a chess move in UCI notation ("e2e4"), so an externally generated
// move-index file (see cmd/generatemoves) is reusable unchanged.
type Move string

// State wraps one immutable chess position.
type State struct {
	game *nchess.Game
}

// New returns the standard starting position.
func New() State {
	return State{game: nchess.NewGame(nchess.UseNotation(nchess.UCINotation{}))}
}

// FromFEN parses a position from Forsyth-Edwards notation.
func FromFEN(fen string) (State, error) {
	f, err := nchess.FEN(fen)
	if err != nil {
		return State{}, fmt.Errorf("game/chess: invalid FEN: %w", err)
	}
	return State{game: nchess.NewGame(f, nchess.UseNotation(nchess.UCINotation{}))}, nil
}

// LegalMoves returns every legal move in the position, in the library's
// native order (not sorted: callers needing a stable action-space index use
// an ActionSpace, not move order).
func (s State) LegalMoves() []Move {
	valid := s.game.ValidMoves()
	out := make([]Move, len(valid))
	for i, m := range valid {
		out[i] = Move(m.String())
	}
	return out
}

// Apply returns the state after playing m, which must be one of LegalMoves.
// It panics on an illegal move: the caller (an evaluator or the self-play
// driver) is expected to only ever propose moves it already validated.
func (s State) Apply(m Move) State {
	next := s.game.Clone()
	if err := next.MoveStr(string(m)); err != nil {
		panic(fmt.Sprintf("game/chess: illegal move %q: %v", m, err))
	}
	return State{game: next}
}

// Terminal reports whether the game is over and, if so, the result from the
// perspective of the player to move. Chess's turn always passes to the loser
// immediately before checkmate is detected, so a non-drawn terminal position
// is always a loss (-1) for whoever is to move there.
func (s State) Terminal() (over bool, value float64) {
	switch s.game.Outcome() {
	case nchess.NoOutcome:
		return false, 0
	case nchess.Draw:
		return true, 0
	default:
		return true, -1
	}
}

// Turn returns the color to move.
func (s State) Turn() nchess.Color { return s.game.Position().Turn() }

// Board returns the current position's board, for encoders that need to
// walk the square map.
func (s State) Board() *nchess.Board { return s.game.Position().Board() }

// FEN returns the position in Forsyth-Edwards notation.
func (s State) FEN() string { return s.game.Position().String() }

func (s State) String() string { return s.game.Position().Board().Draw() }
