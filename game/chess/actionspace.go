package chess

import (
	"bufio"
	"fmt"
	"os"
)

// ActionSpace is a fixed move<->index mapping used by dualnet's policy head,
// generated offline by cmd/generatemoves and loaded from a flat file rather
// than embedded as a constant: the reachable UCI move vocabulary is
// corpus-dependent.
type ActionSpace struct {
	moves   []Move
	indices map[Move]int
}

// LoadActionSpace reads a newline-delimited list of UCI moves, one per line,
// such as the file cmd/generatemoves produces.
func LoadActionSpace(path string) (*ActionSpace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("game/chess: opening action space file: %w", err)
	}
	defer f.Close()

	as := &ActionSpace{indices: make(map[Move]int)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := Move(scanner.Text())
		if _, ok := as.indices[m]; ok {
			continue
		}
		as.indices[m] = len(as.moves)
		as.moves = append(as.moves, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("game/chess: reading action space file: %w", err)
	}
	return as, nil
}

// Size returns the number of distinct moves in the action space.
func (as *ActionSpace) Size() int { return len(as.moves) }

// Index returns m's slot in the policy vector, and false if m was never
// observed while generating the action space.
func (as *ActionSpace) Index(m Move) (int, bool) {
	idx, ok := as.indices[m]
	return idx, ok
}

// Move returns the move at a policy vector slot.
func (as *ActionSpace) Move(idx int) Move { return as.moves[idx] }
