package main

import (
	nchess "github.com/notnil/chess"

	"github.com/as3richa/alpha3/game/chess"
	"github.com/as3richa/alpha3/game/tictactoe"
)

// tictactoeActionSpace treats a board square index as its own policy slot:
// there's no move-index file to load since the whole action space is the
// nine squares.
type tictactoeActionSpace struct{}

func (tictactoeActionSpace) Size() int { return 9 }
func (tictactoeActionSpace) Index(m tictactoe.Move) (int, bool) {
	return int(m), int(m) >= 0 && int(m) < 9
}
func (tictactoeActionSpace) Move(idx int) tictactoe.Move { return tictactoe.Move(idx) }

// tictactoeEncoder feeds dualnet.Net's forward pass (float64, per the
// evaluator contract).
func tictactoeEncoder(s tictactoe.State) []float64 {
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

// tictactoeExampleEncoder feeds selfplay.Example.Board (float32).
func tictactoeExampleEncoder(s tictactoe.State) []float32 {
	feats := make([]float32, 9)
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

// chessFeatures is one plane per square for piece identity plus one feature
// for the side to move.
const chessFeatures = 65

func chessEncoder(s chess.State) []float64 {
	feats := make([]float64, chessFeatures)
	for sq, piece := range s.Board().SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		feats[int(sq)] = pieceValue(piece)
	}
	if s.Turn() == nchess.Black {
		feats[64] = 1
	}
	return feats
}

// chessExampleEncoder feeds selfplay.Example.Board (float32).
func chessExampleEncoder(s chess.State) []float32 {
	feats := make([]float32, chessFeatures)
	for i, f := range chessEncoder(s) {
		feats[i] = float32(f)
	}
	return feats
}

func pieceValue(p nchess.Piece) float64 {
	sign := 1.0
	if p.Color() == nchess.Black {
		sign = -1.0
	}
	switch p.Type() {
	case nchess.Pawn:
		return sign * 1
	case nchess.Knight:
		return sign * 3
	case nchess.Bishop:
		return sign * 3.25
	case nchess.Rook:
		return sign * 5
	case nchess.Queen:
		return sign * 9
	case nchess.King:
		return sign * 100
	default:
		return 0
	}
}
