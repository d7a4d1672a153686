// Package forest implements a random forest classifier.
package forest

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"sync"

	"github.com/flowsift/flowsift/pkg/classifiers"
	"github.com/flowsift/flowsift/pkg/classifiers/cart"
	"github.com/flowsift/flowsift/pkg/classifiers/internal/ensemble"
)

// Forest combines bootstrap resampling with per-split feature subsampling.
// Each tree sees a bootstrap resample of the rows and considers a random
// subset of features at every split, which decorrelates the trees.
type Forest struct {
	mu sync.RWMutex

	// Configuration
	nEstimators     int
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int // 0 means sqrt of feature count
	seed            int64

	// Trained model
	trees   []*cart.Tree
	classes []int
	trained bool
}

// Option configures a Forest.
type Option func(*Forest)

// WithTrees sets the number of trees.
func WithTrees(n int) Option {
	return func(f *Forest) {
		f.nEstimators = n
	}
}

// WithMaxDepth limits the depth of each tree. Zero means unlimited.
func WithMaxDepth(d int) Option {
	return func(f *Forest) {
		f.maxDepth = d
	}
}

// WithMinSamplesSplit sets the per-tree minimum samples to split.
func WithMinSamplesSplit(n int) Option {
	return func(f *Forest) {
		f.minSamplesSplit = n
	}
}

// WithMaxFeatures sets the number of features sampled at each split.
// Zero selects sqrt(p), the usual default for classification.
func WithMaxFeatures(k int) Option {
	return func(f *Forest) {
		f.maxFeatures = k
	}
}

// WithSeed sets the random seed for sampling.
func WithSeed(seed int64) Option {
	return func(f *Forest) {
		f.seed = seed
	}
}

// New creates a Forest with the given options.
func New(opts ...Option) *Forest {
	f := &Forest{
		nEstimators:     100,
		minSamplesSplit: 2,
		seed:            42,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fit grows all trees concurrently on bootstrap resamples.
func (f *Forest) Fit(X [][]float64, y []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, p, err := classifiers.ValidateTrainingData(X, y)
	if err != nil {
		return err
	}

	maxFeatures := f.maxFeatures
	if maxFeatures <= 0 || maxFeatures > p {
		maxFeatures = int(math.Sqrt(float64(p)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	f.classes = classifiers.UniqueClasses(y)
	f.trees = make([]*cart.Tree, f.nEstimators)

	var wg sync.WaitGroup
	errCh := make(chan error, f.nEstimators)

	for i := 0; i < f.nEstimators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(f.seed + int64(i)))
			sampleX, sampleY := ensemble.Bootstrap(rng, X, y)

			tree := cart.New(
				cart.WithMaxDepth(f.maxDepth),
				cart.WithMinSamplesSplit(f.minSamplesSplit),
				cart.WithMaxFeatures(maxFeatures),
				cart.WithSeed(f.seed+int64(i)),
			)
			if err := tree.Fit(sampleX, sampleY); err != nil {
				errCh <- err
				return
			}
			f.trees[i] = tree
		}(i)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}

	f.trained = true
	return nil
}

// Predict returns the majority vote across all trees.
func (f *Forest) Predict(X [][]float64) ([]int, error) {
	probas, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]int, len(probas))
	for i, p := range probas {
		out[i] = f.classes[ensemble.Argmax(p)]
	}
	return out, nil
}

// PredictProba averages the class distributions of all trees.
func (f *Forest) PredictProba(X [][]float64) ([][]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, classifiers.ErrNotTrained
	}

	return ensemble.AverageProbas(f.trees, f.classes, X)
}

// Classes returns the labels seen during training, ascending.
func (f *Forest) Classes() []int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]int, len(f.classes))
	copy(out, f.classes)
	return out
}

// FeatureImportances returns the mean impurity decrease per feature,
// averaged over all trees and normalized to sum to 1.
func (f *Forest) FeatureImportances() []float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ensemble.AverageImportances(f.trees)
}

// Save serializes the trained forest.
func (f *Forest) Save() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, classifiers.ErrNotTrained
	}

	blobs, err := ensemble.EncodeTrees(f.trees)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(f.nEstimators); err != nil {
		return nil, err
	}
	if err := enc.Encode(f.maxFeatures); err != nil {
		return nil, err
	}
	if err := enc.Encode(f.classes); err != nil {
		return nil, err
	}
	if err := enc.Encode(blobs); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Load deserializes a trained forest.
func (f *Forest) Load(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewBuffer(data))

	if err := dec.Decode(&f.nEstimators); err != nil {
		return err
	}
	if err := dec.Decode(&f.maxFeatures); err != nil {
		return err
	}
	if err := dec.Decode(&f.classes); err != nil {
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
	f.trees = trees

	f.trained = true
	return nil
}
