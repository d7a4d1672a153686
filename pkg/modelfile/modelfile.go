// Package modelfile persists trained models, together with the scaler
// that prepared their training data, as single files on disk.
package modelfile

import (
	"bytes"
	"encoding/gob"
	"os"

	"github.com/pkg/errors"

	"github.com/flowsift/flowsift/pkg/classifiers"
	"github.com/flowsift/flowsift/pkg/classifiers/bagging"
	"github.com/flowsift/flowsift/pkg/classifiers/cart"
	"github.com/flowsift/flowsift/pkg/classifiers/forest"
	"github.com/flowsift/flowsift/pkg/classifiers/pcaforest"
	"github.com/flowsift/flowsift/pkg/dataset"
)

// Model kind names used in files and on the command line.
const (
	KindCART      = "cart"
	KindBagging   = "bagging"
	KindForest    = "forest"
	KindPCAForest = "pcaforest"
)

// envelope is the on-disk layout.
type envelope struct {
	Kind   string
	Blob   []byte
	Scaler *dataset.StandardScaler // nil when training data was not scaled
}

// New constructs an untrained model of the given kind with default
// configuration. Used to receive a loaded blob.
func New(kind string) (classifiers.Classifier, error) {
	switch kind {
	case KindCART:
		return cart.New(), nil
	case KindBagging:
		return bagging.New(), nil
	case KindForest:
		return forest.New(), nil
	case KindPCAForest:
		return pcaforest.New(), nil
	}
	return nil, errors.Errorf("modelfile: unknown model kind %q", kind)
}

// Save writes a trained model and optional scaler to path.
func Save(path, kind string, c classifiers.Classifier, scaler *dataset.StandardScaler) error {
	blob, err := c.Save()
	if err != nil {
		return errors.Wrap(err, "modelfile: serialize model")
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{
		Kind:   kind,
		Blob:   blob,
		Scaler: scaler,
	}); err != nil {
		return errors.Wrap(err, "modelfile: encode")
	}

	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "modelfile: write %s", path)
}

// Load reads a model file and reconstructs the trained model and its
// scaler (nil when none was saved).
func Load(path string) (string, classifiers.Classifier, *dataset.StandardScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, nil, errors.Wrapf(err, "modelfile: read %s", path)
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return "", nil, nil, errors.Wrap(err, "modelfile: decode")
	}

	c, err := New(env.Kind)
	if err != nil {
		return "", nil, nil, err
	}
	if err := c.Load(env.Blob); err != nil {
		return "", nil, nil, errors.Wrap(err, "modelfile: load model")
	}
	return env.Kind, c, env.Scaler, nil
}
