// Package game holds collaborators shared across concrete game
// implementations (game/tictactoe, game/chess) without coupling search or
// batch to any one of them.
package game

// Encoder flattens a game state into the fixed-length feature vector a
// neural network's input layer expects.
type Encoder[S any] func(S) []float32
