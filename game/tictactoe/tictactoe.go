// Package tictactoe is a complete, dependency-free game, small enough to
// hand-verify a PUCT trace by eye. It is the fixture of the dualnet and
// selfplay tests and the trivial demo in cmd/selfplay and cmd/treeviz; the
// chess demo uses game/chess for a real action space.
package tictactoe

import "fmt"

// Player is one of the two marks, or Empty for an unplayed square.
type Player int8

const (
	Empty Player = iota
	X
	O
)

func (p Player) String() string {
	switch p {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "."
	}
}

// Move is the index of the square played, 0..8, laid out row-major.
type Move int8

// State is the board and the player to move next. It is a plain value type:
// copying it copies the whole board, so it is safe to hold many instances
// (one per tree node) without aliasing.
type State struct {
	board [9]Player
	turn  Player
}

// New returns the empty starting position with X to move.
func New() State {
	return State{turn: X}
}

// Turn returns the player to move.
func (s State) Turn() Player { return s.turn }

// At returns the mark at square i.
func (s State) At(i Move) Player { return s.board[i] }

// LegalMoves returns the empty squares, in ascending index order.
func (s State) LegalMoves() []Move {
	var moves []Move
	for i := Move(0); i < 9; i++ {
		if s.board[i] == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

// Apply returns the state after the player to move plays m. It panics if m
// is not an empty square, which is a programming error in the caller - this
// package does no legality bookkeeping beyond "is the square empty".
func (s State) Apply(m Move) State {
	if s.board[m] != Empty {
		panic(fmt.Sprintf("tictactoe: square %d is already occupied", m))
	}
	next := s
	next.board[m] = s.turn
	if s.turn == X {
		next.turn = O
	} else {
		next.turn = X
	}
	return next
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Winner returns the winning mark, or Empty if there is none yet.
func (s State) Winner() Player {
	for _, l := range lines {
		a, b, c := s.board[l[0]], s.board[l[1]], s.board[l[2]]
		if a != Empty && a == b && b == c {
			return a
		}
	}
	return Empty
}

// Full reports whether every square has been played.
func (s State) Full() bool {
	for _, p := range s.board {
		if p == Empty {
			return false
		}
	}
	return true
}

// Terminal reports whether the game is over and, if so, the result from the
// perspective of the player to move: -1 if that player has just been beaten,
// 0 for a drawn or no-result position, and it is never +1 since a move that
// wins the game always ends on the opponent's turn.
func (s State) Terminal() (over bool, value float64) {
	switch s.Winner() {
	case Empty:
		if s.Full() {
			return true, 0
		}
		return false, 0
	default:
		return true, -1
	}
}

func (s State) String() string {
	out := ""
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out += s.board[r*3+c].String()
		}
		out += "\n"
	}
	return out
}
