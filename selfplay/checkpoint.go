package selfplay

import (
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/as3richa/alpha3/batch"
	"github.com/as3richa/alpha3/dualnet"
)

const (
	metaFile  = "meta.json"
	modelFile = "checkpoint.model"
)

// MetaData is the JSON sidecar persisted next to a gob-encoded *dualnet.Net,
// alongside checkpoint.model.
type MetaData struct {
	NNConf     dualnet.Config `json:"nn_conf"`
	DriverConf batch.Config   `json:"driver_conf"`
}

// SaveCheckpoint writes dirName/meta.json and dirName/checkpoint.model,
// creating dirName if it doesn't already exist.
func (t *Trainer[S, M]) SaveCheckpoint(dirName string) error {
	if err := os.MkdirAll(dirName, 0755); err != nil {
		return errors.Wrap(err, "selfplay: creating checkpoint directory")
	}

	meta := MetaData{NNConf: t.net.Conf(), DriverConf: t.driverCfg}
	jsonBytes, err := json.MarshalIndent(meta, "", "\t")
	if err != nil {
		return errors.Wrap(err, "selfplay: marshaling checkpoint metadata")
	}
	if err := os.WriteFile(filepath.Join(dirName, metaFile), jsonBytes, 0644); err != nil {
		return errors.Wrap(err, "selfplay: writing checkpoint metadata")
	}

	f, err := os.OpenFile(filepath.Join(dirName, modelFile), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "selfplay: opening checkpoint model file")
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(t.net); err != nil {
		return errors.Wrap(err, "selfplay: encoding checkpoint model")
	}
	return nil
}

// LoadCheckpoint reads dirName/meta.json and dirName/checkpoint.model back
// into t's net and driver config. t.net must already be constructed with a
// matching encoder and action space (those runtime collaborators are never
// serialized, the same restriction dualnet.Net.GobDecode documents).
func (t *Trainer[S, M]) LoadCheckpoint(dirName string) error {
	jsonBytes, err := os.ReadFile(filepath.Join(dirName, metaFile))
	if err != nil {
		return errors.Wrap(err, "selfplay: reading checkpoint metadata")
	}
	var meta MetaData
	if err := json.Unmarshal(jsonBytes, &meta); err != nil {
		return errors.Wrap(err, "selfplay: unmarshaling checkpoint metadata")
	}
	t.driverCfg = meta.DriverConf

	f, err := os.Open(filepath.Join(dirName, modelFile))
	if err != nil {
		return errors.Wrap(err, "selfplay: opening checkpoint model file")
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(t.net); err != nil {
		return errors.Wrap(err, "selfplay: decoding checkpoint model")
	}
	return nil
}
