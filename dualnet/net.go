package dualnet

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"

	"github.com/as3richa/alpha3/batch"
	"github.com/as3richa/alpha3/search"
)

// GameState constrains the states Net can evaluate: it must be able to
// enumerate its own legal moves and apply one to produce the next state of
// the same type, mirroring game/tictactoe and game/chess.
type GameState[S any, M comparable] interface {
	LegalMoves() []M
	Apply(M) S
}

// ActionSpace maps a fixed vocabulary of moves to dense policy-vector slots.
// *game/chess.ActionSpace satisfies this for M = game/chess.Move.
type ActionSpace[M comparable] interface {
	Size() int
	Index(M) (int, bool)
	Move(int) M
}

// Encoder flattens one game state into the fixed-length feature vector the
// network's input layer expects.
type Encoder[S any] func(S) []float64

// Net is a small MLP: a shared trunk of cfg.SharedLayers dense+ReLU layers,
// a softmax policy head over the action space, and a tanh value head. It
// implements batch.Evaluator[S, M], batching every leaf state from one
// driver cycle into a single forward pass.
type Net[S GameState[S, M], M comparable] struct {
	cfg     Config
	enc     Encoder[S]
	actions ActionSpace[M]

	g     *G.ExprGraph
	input *G.Node

	trunkW []*G.Node
	trunkB []*G.Node

	policyW, policyB *G.Node
	valueW, valueB   *G.Node

	policyOut, valueOut *G.Node

	vm G.VM
}

// New allocates a Net; call Init before Evaluate.
func New[S GameState[S, M], M comparable](cfg Config, enc Encoder[S], actions ActionSpace[M]) *Net[S, M] {
	return &Net[S, M]{cfg: cfg, enc: enc, actions: actions}
}

// Conf returns the Config a Net was constructed with.
func (n *Net[S, M]) Conf() Config { return n.cfg }

// Init builds the computational graph and its tape machine with randomly
// initialized weights. Weight tensors use a float32 backing (vecf32),
// matching gorgonia's own convention, with the boundary to the rest of the
// core (which is float64-typed throughout, per the evaluator contract)
// crossed only in Evaluate.
func (n *Net[S, M]) Init() error {
	if !n.cfg.IsValid() {
		return errors.New("dualnet: invalid config")
	}

	n.g = G.NewGraph()
	n.trunkW, n.trunkB = nil, nil
	b := n.cfg.BatchSize

	n.input = G.NewMatrix(n.g, tensor.Float32, G.WithShape(b, n.cfg.Features), G.WithName("input"), G.WithInit(G.Zeroes()))

	cur := n.input
	curWidth := n.cfg.Features
	for i := 0; i < n.cfg.SharedLayers; i++ {
		w := n.newWeight(fmt.Sprintf("trunk_w%d", i), curWidth, n.cfg.K)
		bias := n.newWeight(fmt.Sprintf("trunk_b%d", i), 1, n.cfg.K)
		n.trunkW = append(n.trunkW, w)
		n.trunkB = append(n.trunkB, bias)

		affine := G.Must(G.Mul(cur, w))
		affine = G.Must(G.BroadcastAdd(affine, bias, nil, []byte{0}))
		cur = G.Must(G.Rectify(affine))
		curWidth = n.cfg.K
	}

	n.policyW = n.newWeight("policy_w", curWidth, n.cfg.ActionSpace)
	n.policyB = n.newWeight("policy_b", 1, n.cfg.ActionSpace)
	policyAffine := G.Must(G.Mul(cur, n.policyW))
	policyAffine = G.Must(G.BroadcastAdd(policyAffine, n.policyB, nil, []byte{0}))
	n.policyOut = G.Must(G.SoftMax(policyAffine))

	n.valueW = n.newWeight("value_w", curWidth, 1)
	n.valueB = n.newWeight("value_b", 1, 1)
	valueAffine := G.Must(G.Mul(cur, n.valueW))
	valueAffine = G.Must(G.BroadcastAdd(valueAffine, n.valueB, nil, []byte{0}))
	n.valueOut = G.Must(G.Tanh(valueAffine))

	n.vm = G.NewTapeMachine(n.g)
	return nil
}

func (n *Net[S, M]) newWeight(name string, rows, cols int) *G.Node {
	size := rows * cols
	backing := vecf32.Range(0, size)
	scale := float32(1) / float32(rows+1)
	for i := range backing {
		backing[i] = (rand.Float32()*2 - 1) * scale
	}
	return G.NewMatrix(n.g, tensor.Float32, G.WithShape(rows, cols), G.WithName(name),
		G.WithValue(tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))))
}

// Evaluate implements batch.Evaluator[S, M]: it encodes every state,
// pads the batch up to the network's static BatchSize, runs one forward
// pass, and decodes the policy/value outputs back into one batch.Expansion
// per input state, in order.
func (n *Net[S, M]) Evaluate(ctx context.Context, states []S) ([]batch.Expansion[M, S], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(states) > n.cfg.BatchSize {
		return nil, errors.Errorf("dualnet: batch of %d exceeds static batch size %d", len(states), n.cfg.BatchSize)
	}

	backing := make([]float32, n.cfg.BatchSize*n.cfg.Features)
	for i, s := range states {
		feats := n.enc(s)
		if len(feats) != n.cfg.Features {
			return nil, errors.Errorf("dualnet: encoder produced %d features, want %d", len(feats), n.cfg.Features)
		}
		for j, f := range feats {
			backing[i*n.cfg.Features+j] = float32(f)
		}
	}
	inputTensor := tensor.New(tensor.WithShape(n.cfg.BatchSize, n.cfg.Features), tensor.WithBacking(backing))
	if err := G.Let(n.input, inputTensor); err != nil {
		return nil, errors.Wrap(err, "dualnet: setting input")
	}

	if err := n.vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "dualnet: forward pass")
	}
	defer n.vm.Reset()

	policy := n.policyOut.Value().Data().([]float32)
	value := n.valueOut.Value().Data().([]float32)

	out := make([]batch.Expansion[M, S], len(states))
	for i, s := range states {
		row := policy[i*n.cfg.ActionSpace : (i+1)*n.cfg.ActionSpace]
		legal := s.LegalMoves()
		children := make([]search.ExpansionEntry[M, S], 0, len(legal))
		for _, m := range legal {
			prior := 0.0
			if idx, ok := n.actions.Index(m); ok {
				prior = float64(row[idx])
			}
			children = append(children, search.ExpansionEntry[M, S]{
				Move:  m,
				State: s.Apply(m),
				Prior: prior,
			})
		}
		out[i] = batch.Expansion[M, S]{Value: float64(value[i]), Children: children}
	}
	return out, nil
}
