// Package dualnet is a reference evaluator: a small residual-free MLP trunk
// with a policy head and a value head, implementing batch.Evaluator so it
// can be dropped straight into a batch.Driver. It is the single forward
// pass that makes batching worthwhile in the first place.
package dualnet

// Config configures the neural network.
type Config struct {
	K            int `json:"k"`             // hidden layer width
	SharedLayers int `json:"shared_layers"` // number of shared hidden layers
	FC           int `json:"fc"`            // head width; checked by IsValid, not read by Net
	BatchSize    int `json:"batch_size"`    // static graph batch size
	Features     int `json:"features"`      // length of one encoded state's feature vector
	ActionSpace  int `json:"action_space"`  // policy head width
}

// DefaultConfig picks reasonable widths for an action space of the given
// size and an encoded feature vector of the given length.
func DefaultConfig(features, actionSpace int) Config {
	k := round(actionSpace / 3)
	return Config{
		K:            k,
		SharedLayers: 2,
		FC:           2 * k,
		BatchSize:    256,
		Features:     features,
		ActionSpace:  actionSpace,
	}
}

// IsValid reports whether conf describes a buildable network.
func (conf Config) IsValid() bool {
	return conf.K >= 1 &&
		conf.ActionSpace >= 2 &&
		conf.SharedLayers >= 1 &&
		conf.FC > 1 &&
		conf.BatchSize >= 1 &&
		conf.Features > 0
}

func round(a int) int {
	n := a - 1
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++

	lt := n / 2
	if (a - lt) < (n - a) {
		return lt
	}
	return n
}
