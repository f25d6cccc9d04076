package dualnet

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// weightSnapshot is the gob-friendly projection of a Net's learned
// parameters: the ExprGraph itself cannot be gob-encoded directly, so
// GobEncode/GobDecode below save and restore just the raw weight values as a
// flat struct.
type weightSnapshot struct {
	Cfg     Config
	Trunk   [][]float32
	PolicyW []float32
	PolicyB []float32
	ValueW  []float32
	ValueB  []float32
}

// GobEncode lets selfplay.SaveCheckpoint gob.Encode a *Net directly.
func (n *Net[S, M]) GobEncode() ([]byte, error) {
	snap := weightSnapshot{Cfg: n.cfg}
	for _, w := range n.trunkW {
		snap.Trunk = append(snap.Trunk, w.Value().Data().([]float32))
	}
	snap.PolicyW = n.policyW.Value().Data().([]float32)
	snap.PolicyB = n.policyB.Value().Data().([]float32)
	snap.ValueW = n.valueW.Value().Data().([]float32)
	snap.ValueB = n.valueB.Value().Data().([]float32)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, errors.Wrap(err, "dualnet: encoding checkpoint")
	}
	return buf.Bytes(), nil
}

// GobDecode restores weights into an already-Init'd Net (enc/actions are
// runtime collaborators and are never serialized; the caller must supply
// matching ones via New before decoding).
func (n *Net[S, M]) GobDecode(data []byte) error {
	var snap weightSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return errors.Wrap(err, "dualnet: decoding checkpoint")
	}
	n.cfg = snap.Cfg
	if err := n.Init(); err != nil {
		return errors.Wrap(err, "dualnet: rebuilding graph from checkpoint")
	}

	for i, w := range snap.Trunk {
		if err := setWeight(n.trunkW[i], w); err != nil {
			return err
		}
	}
	if err := setWeight(n.policyW, snap.PolicyW); err != nil {
		return err
	}
	if err := setWeight(n.policyB, snap.PolicyB); err != nil {
		return err
	}
	if err := setWeight(n.valueW, snap.ValueW); err != nil {
		return err
	}
	return setWeight(n.valueB, snap.ValueB)
}

func setWeight(node *G.Node, backing []float32) error {
	t := tensor.New(tensor.WithShape(node.Shape()...), tensor.WithBacking(backing))
	if err := G.Let(node, t); err != nil {
		return errors.Wrap(err, "dualnet: restoring weight")
	}
	return nil
}
