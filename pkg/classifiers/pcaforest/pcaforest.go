// Package pcaforest chains a PCA projection with a random forest.
//
// The training matrix is centered and decomposed with a thin SVD; samples
// are projected onto the leading principal components before the forest
// sees them. Useful when the raw feature space is wide or collinear.
package pcaforest

import (
	"bytes"
	"encoding/gob"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/flowsift/flowsift/pkg/classifiers"
	"github.com/flowsift/flowsift/pkg/classifiers/forest"
)

// Pipeline is a PCA projection followed by a random forest.
type Pipeline struct {
	mu sync.RWMutex

	// Configuration
	nComponents int
	forestOpts  []forest.Option

	// Trained model
	means      []float64
	components *mat.Dense // p x k projection matrix
	explained  []float64  // variance ratio per kept component
	forest     *forest.Forest
	trained    bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithComponents sets the number of principal components kept.
func WithComponents(k int) Option {
	return func(p *Pipeline) {
		p.nComponents = k
	}
}

// WithForestOptions forwards options to the downstream forest.
func WithForestOptions(opts ...forest.Option) Option {
	return func(p *Pipeline) {
		p.forestOpts = append(p.forestOpts, opts...)
	}
}

// New creates a Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		nComponents: 2,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Fit factorizes the centered training matrix and trains the forest on the
// projected samples.
func (p *Pipeline) Fit(X [][]float64, y []int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, cols, err := classifiers.ValidateTrainingData(X, y)
	if err != nil {
		return err
	}

	// A thin SVD yields at most min(n, p) components.
	k := p.nComponents
	if k > cols {
		k = cols
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	p.means = columnMeans(X)
	centered := mat.NewDense(n, cols, nil)
	for i, row := range X {
		for j, v := range row {
			centered.Set(i, j, v-p.means[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return classifiers.ErrDimensionMismatch
	}

	var v mat.Dense
	svd.VTo(&v)
	p.components = mat.DenseCopyOf(v.Slice(0, cols, 0, k))

	// Per-component variance ratio from the singular values.
	values := svd.Values(nil)
	var total float64
	for _, s := range values {
		total += s * s
	}
	p.explained = make([]float64, k)
	if total > 0 {
		for i := 0; i < k; i++ {
			p.explained[i] = values[i] * values[i] / total
		}
	}

	var projected mat.Dense
	projected.Mul(centered, p.components)

	p.forest = forest.New(p.forestOpts...)
	if err := p.forest.Fit(denseToRows(&projected), y); err != nil {
		return err
	}

	p.trained = true
	return nil
}

// Predict projects X and delegates to the forest.
func (p *Pipeline) Predict(X [][]float64) ([]int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.trained {
		return nil, classifiers.ErrNotTrained
	}

	projected, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.forest.Predict(projected)
}

// PredictProba projects X and delegates to the forest.
func (p *Pipeline) PredictProba(X [][]float64) ([][]float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.trained {
		return nil, classifiers.ErrNotTrained
	}

	projected, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.forest.PredictProba(projected)
}

// Classes returns the labels seen during training, ascending.
func (p *Pipeline) Classes() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.forest == nil {
		return nil
	}
	return p.forest.Classes()
}

// ExplainedVarianceRatio returns the share of total variance captured by
// each kept component, in component order.
func (p *Pipeline) ExplainedVarianceRatio() []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]float64, len(p.explained))
	copy(out, p.explained)
	return out
}

// NumComponents returns the number of components actually kept.
func (p *Pipeline) NumComponents() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.components == nil {
		return 0
	}
	_, k := p.components.Dims()
	return k
}

// Save serializes the trained pipeline.
func (p *Pipeline) Save() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.trained {
		return nil, classifiers.ErrNotTrained
	}

	rows, k := p.components.Dims()
	raw := make([]float64, 0, rows*k)
	for i := 0; i < rows; i++ {
		raw = append(raw, p.components.RawRowView(i)...)
	}

	forestBlob, err := p.forest.Save()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(p.means); err != nil {
		return nil, err
	}
	if err := enc.Encode(rows); err != nil {
		return nil, err
	}
	if err := enc.Encode(k); err != nil {
		return nil, err
	}
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	if err := enc.Encode(p.explained); err != nil {
		return nil, err
	}
	if err := enc.Encode(forestBlob); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Load deserializes a trained pipeline.
func (p *Pipeline) Load(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewBuffer(data))

	var rows, k int
	var raw []float64

	if err := dec.Decode(&p.means); err != nil {
		return err
	}
	if err := dec.Decode(&rows); err != nil {
		return err
	}
	if err := dec.Decode(&k); err != nil {
		return err
	}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if err := dec.Decode(&p.explained); err != nil {
		return err
	}

	var forestBlob []byte
	if err := dec.Decode(&forestBlob); err != nil {
		return err
	}

	p.components = mat.NewDense(rows, k, raw)
	p.nComponents = k
	p.forest = forest.New()
	if err := p.forest.Load(forestBlob); err != nil {
		return err
	}

	p.trained = true
	return nil
}

// transform centers X with the training means and projects it onto the
// kept components. Callers hold the read lock.
func (p *Pipeline) transform(X [][]float64) ([][]float64, error) {
	if len(X) == 0 {
		return nil, classifiers.ErrEmptyTrainingData
	}
	cols, _ := p.components.Dims()
	for _, row := range X {
		if len(row) != cols {
			return nil, classifiers.ErrDimensionMismatch
		}
	}

	centered := mat.NewDense(len(X), cols, nil)
	for i, row := range X {
		for j, v := range row {
			centered.Set(i, j, v-p.means[j])
		}
	}

	var projected mat.Dense
	projected.Mul(centered, p.components)
	return denseToRows(&projected), nil
}

func columnMeans(X [][]float64) []float64 {
	means := make([]float64, len(X[0]))
	for _, row := range X {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(len(X))
	}
	return means
}

func denseToRows(m *mat.Dense) [][]float64 {
	rows, cols := m.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		copy(row, m.RawRowView(i))
		out[i] = row
	}
	return out
}
