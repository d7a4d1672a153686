// Package bagging implements bootstrap aggregation over decision trees.
package bagging

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"sync"

	"github.com/flowsift/flowsift/pkg/classifiers"
	"github.com/flowsift/flowsift/pkg/classifiers/cart"
	"github.com/flowsift/flowsift/pkg/classifiers/internal/ensemble"
)

// Ensemble trains independent trees on bootstrap resamples of the training
// set and predicts by majority vote. Unlike a random forest, every tree
// considers all features at each split.
type Ensemble struct {
	mu sync.RWMutex

	// Configuration
	nEstimators     int
	maxDepth        int
	minSamplesSplit int
	seed            int64

	// Trained model
	trees   []*cart.Tree
	classes []int
	trained bool
}

// Option configures an Ensemble.
type Option func(*Ensemble)

// WithEstimators sets the number of trees.
func WithEstimators(n int) Option {
	return func(e *Ensemble) {
		e.nEstimators = n
	}
}

// WithMaxDepth limits the depth of each tree. Zero means unlimited.
func WithMaxDepth(d int) Option {
	return func(e *Ensemble) {
		e.maxDepth = d
	}
}

// WithMinSamplesSplit sets the per-tree minimum samples to split.
func WithMinSamplesSplit(n int) Option {
	return func(e *Ensemble) {
		e.minSamplesSplit = n
	}
}

// WithSeed sets the random seed for bootstrap sampling.
func WithSeed(seed int64) Option {
	return func(e *Ensemble) {
		e.seed = seed
	}
}

// New creates an Ensemble with the given options.
func New(opts ...Option) *Ensemble {
	e := &Ensemble{
		nEstimators:     50,
		minSamplesSplit: 2,
		seed:            42,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Fit trains every tree on its own bootstrap resample. Trees are grown
// concurrently; any tree error aborts the fit.
func (e *Ensemble) Fit(X [][]float64, y []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, _, err := classifiers.ValidateTrainingData(X, y); err != nil {
		return err
	}

	e.classes = classifiers.UniqueClasses(y)
	e.trees = make([]*cart.Tree, e.nEstimators)

	var wg sync.WaitGroup
	errCh := make(chan error, e.nEstimators)

	for i := 0; i < e.nEstimators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			// Independent source per tree to avoid rng contention.
			rng := rand.New(rand.NewSource(e.seed + int64(i)))
			sampleX, sampleY := ensemble.Bootstrap(rng, X, y)

			tree := cart.New(
				cart.WithMaxDepth(e.maxDepth),
				cart.WithMinSamplesSplit(e.minSamplesSplit),
				cart.WithSeed(e.seed+int64(i)),
			)
			if err := tree.Fit(sampleX, sampleY); err != nil {
				errCh <- err
				return
			}
			e.trees[i] = tree
		}(i)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}

	e.trained = true
	return nil
}

// Predict returns the majority vote across all trees.
func (e *Ensemble) Predict(X [][]float64) ([]int, error) {
	probas, err := e.PredictProba(X)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]int, len(probas))
	for i, p := range probas {
		out[i] = e.classes[ensemble.Argmax(p)]
	}
	return out, nil
}

// PredictProba averages the class distributions of all trees.
func (e *Ensemble) PredictProba(X [][]float64) ([][]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.trained {
		return nil, classifiers.ErrNotTrained
	}

	return ensemble.AverageProbas(e.trees, e.classes, X)
}

// Classes returns the labels seen during training, ascending.
func (e *Ensemble) Classes() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]int, len(e.classes))
	copy(out, e.classes)
	return out
}

// FeatureImportances averages the per-tree importances.
func (e *Ensemble) FeatureImportances() []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return ensemble.AverageImportances(e.trees)
}

// Save serializes the trained ensemble.
func (e *Ensemble) Save() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.trained {
		return nil, classifiers.ErrNotTrained
	}

	blobs, err := ensemble.EncodeTrees(e.trees)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(e.nEstimators); err != nil {
		return nil, err
	}
	if err := enc.Encode(e.classes); err != nil {
		return nil, err
	}
	if err := enc.Encode(blobs); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Load deserializes a trained ensemble.
func (e *Ensemble) Load(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewBuffer(data))

	if err := dec.Decode(&e.nEstimators); err != nil {
		return err
	}
	if err := dec.Decode(&e.classes); err != nil {
		return err
	}

	var blobs [][]byte
	if err := dec.Decode(&blobs); err != nil {
		return err
	}

	trees, err := ensemble.DecodeTrees(blobs)
	if err != nil {
		return err
	}
	e.trees = trees

	e.trained = true
	return nil
}
