// Package cart implements a CART-style decision tree classifier.
package cart

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/flowsift/flowsift/pkg/classifiers"
)

// Criterion names accepted by WithCriterion.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)

// Tree is a binary decision tree grown by recursive impurity-minimizing
// splits on numeric features.
type Tree struct {
	mu sync.RWMutex

	// Configuration
	criterion       string
	maxDepth        int // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all features
	seed            int64

	// Trained model
	root        *node
	classes     []int
	nFeatures   int
	importances []float64
	trained     bool
}

// node is a tree node. Fields are exported for gob serialization.
type node struct {
	// Split parameters (internal nodes)
	Feature   int
	Threshold float64
	Left      *node
	Right     *node

	// Leaf information
	Leaf   bool
	N      int
	Probas []float64 // aligned with Tree.classes
	Pred   int       // index into Tree.classes
}

// Option configures a Tree.
type Option func(*Tree)

// WithCriterion selects the impurity criterion ("gini" or "entropy").
func WithCriterion(c string) Option {
	return func(t *Tree) {
		t.criterion = c
	}
}

// WithMaxDepth limits tree depth. Zero means unlimited.
func WithMaxDepth(d int) Option {
	return func(t *Tree) {
		t.maxDepth = d
	}
}

// WithMinSamplesSplit sets the minimum samples required to attempt a split.
func WithMinSamplesSplit(n int) Option {
	return func(t *Tree) {
		t.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum samples required in each child.
func WithMinSamplesLeaf(n int) Option {
	return func(t *Tree) {
		t.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets the number of features sampled per split.
// Zero means all features are considered.
func WithMaxFeatures(k int) Option {
	return func(t *Tree) {
		t.maxFeatures = k
	}
}

// WithSeed sets the random seed used for feature subsampling.
func WithSeed(seed int64) Option {
	return func(t *Tree) {
		t.seed = seed
	}
}

// New creates a Tree with the given options.
func New(opts ...Option) *Tree {
	t := &Tree{
		criterion:       CriterionGini,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		seed:            42,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Fit grows the tree on X and y.
func (t *Tree) Fit(X [][]float64, y []int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, p, err := classifiers.ValidateTrainingData(X, y)
	if err != nil {
		return err
	}

	t.classes = classifiers.UniqueClasses(y)
	t.nFeatures = p
	t.importances = make([]float64, p)

	classIdx := make(map[int]int, len(t.classes))
	for i, c := range t.classes {
		classIdx[c] = i
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	b := &builder{
		tree:     t,
		X:        X,
		y:        y,
		classIdx: classIdx,
		nTotal:   n,
		rng:      rand.New(rand.NewSource(t.seed)),
	}
	t.root = b.grow(idx, 0)

	normalize(t.importances)
	t.trained = true
	return nil
}

// Predict returns the majority-class label for each sample.
func (t *Tree) Predict(X [][]float64) ([]int, error) {
	probas, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]int, len(probas))
	for i, p := range probas {
		out[i] = t.classes[argmax(p)]
	}
	return out, nil
}

// PredictProba returns per-class probability vectors.
func (t *Tree) PredictProba(X [][]float64) ([][]float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.trained {
		return nil, classifiers.ErrNotTrained
	}

	out := make([][]float64, len(X))
	for i, sample := range X {
		if len(sample) != t.nFeatures {
			return nil, classifiers.ErrDimensionMismatch
		}
		out[i] = t.route(sample)
	}
	return out, nil
}

// Classes returns the labels seen during training, ascending.
func (t *Tree) Classes() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]int, len(t.classes))
	copy(out, t.classes)
	return out
}

// FeatureImportances returns the normalized mean impurity decrease per
// feature, accumulated over all accepted splits.
func (t *Tree) FeatureImportances() []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]float64, len(t.importances))
	copy(out, t.importances)
	return out
}

// Save serializes the trained tree.
func (t *Tree) Save() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.trained {
		return nil, classifiers.ErrNotTrained
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(t.criterion); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.maxDepth); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.minSamplesSplit); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.minSamplesLeaf); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.maxFeatures); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.seed); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.classes); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.nFeatures); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.importances); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.root); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Load deserializes a trained tree.
func (t *Tree) Load(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewBuffer(data))

	if err := dec.Decode(&t.criterion); err != nil {
		return err
	}
	if err := dec.Decode(&t.maxDepth); err != nil {
		return err
	}
	if err := dec.Decode(&t.minSamplesSplit); err != nil {
		return err
	}
	if err := dec.Decode(&t.minSamplesLeaf); err != nil {
		return err
	}
	if err := dec.Decode(&t.maxFeatures); err != nil {
		return err
	}
	if err := dec.Decode(&t.seed); err != nil {
		return err
	}
	if err := dec.Decode(&t.classes); err != nil {
		return err
	}
	if err := dec.Decode(&t.nFeatures); err != nil {
		return err
	}
	if err := dec.Decode(&t.importances); err != nil {
		return err
	}
	if err := dec.Decode(&t.root); err != nil {
		return err
	}

	t.trained = true
	return nil
}

// route walks a sample to a leaf and returns its class distribution.
func (t *Tree) route(sample []float64) []float64 {
	n := t.root
	for !n.Leaf {
		if sample[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	out := make([]float64, len(n.Probas))
	copy(out, n.Probas)
	return out
}

// builder carries the shared state of a single Fit call.
type builder struct {
	tree     *Tree
	X        [][]float64
	y        []int
	classIdx map[int]int
	nTotal   int
	rng      *rand.Rand
}

// grow recursively builds the subtree over the given sample indices.
func (b *builder) grow(idx []int, depth int) *node {
	t := b.tree

	counts := b.counts(idx)
	if isPure(counts) || len(idx) < t.minSamplesSplit {
		return b.leaf(counts, len(idx))
	}
	if t.maxDepth > 0 && depth >= t.maxDepth {
		return b.leaf(counts, len(idx))
	}

	best := b.bestSplit(idx, counts)
	if best.feature < 0 {
		return b.leaf(counts, len(idx))
	}

	// Weighted impurity decrease, attributed to the split feature.
	t.importances[best.feature] += float64(len(idx)) / float64(b.nTotal) * best.gain

	return &node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      b.grow(best.left, depth+1),
		Right:     b.grow(best.right, depth+1),
	}
}

func (b *builder) leaf(counts []int, n int) *node {
	return &node{
		Leaf:   true,
		N:      n,
		Probas: countsToProbas(counts),
		Pred:   argmaxInt(counts),
	}
}

func (b *builder) counts(idx []int) []int {
	counts := make([]int, len(b.tree.classes))
	for _, i := range idx {
		counts[b.classIdx[b.y[i]]]++
	}
	return counts
}

// split describes the best cut found for a node.
type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

// bestSplit scans candidate features for the threshold with the largest
// impurity decrease.
func (b *builder) bestSplit(idx []int, counts []int) split {
	t := b.tree
	p := t.nFeatures

	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if t.maxFeatures > 0 && t.maxFeatures < p {
		b.rng.Shuffle(p, func(i, j int) {
			features[i], features[j] = features[j], features[i]
		})
		features = features[:t.maxFeatures]
	}

	parent := b.impurity(counts)
	best := split{feature: -1}

	for _, f := range features {
		if s, ok := b.scanFeature(idx, f, parent); ok && s.gain > best.gain {
			best = s
		}
	}
	return best
}

// scanFeature sorts the node's samples by one feature and evaluates every
// boundary between distinct values with incremental class counts.
func (b *builder) scanFeature(idx []int, f int, parent float64) (split, bool) {
	t := b.tree

	order := make([]int, len(idx))
	copy(order, idx)
	sort.Slice(order, func(a, c int) bool {
		return b.X[order[a]][f] < b.X[order[c]][f]
	})

	total := len(order)
	leftCounts := make([]int, len(t.classes))
	rightCounts := b.counts(order)

	best := split{feature: -1}
	for s := 1; s < total; s++ {
		ci := b.classIdx[b.y[order[s-1]]]
		leftCounts[ci]++
		rightCounts[ci]--

		prev, cur := b.X[order[s-1]][f], b.X[order[s]][f]
		if prev == cur {
			continue
		}
		if s < t.minSamplesLeaf || total-s < t.minSamplesLeaf {
			continue
		}

		weighted := float64(s)/float64(total)*b.impurity(leftCounts) +
			float64(total-s)/float64(total)*b.impurity(rightCounts)
		gain := parent - weighted
		if gain > best.gain {
			best = split{
				feature:   f,
				threshold: (prev + cur) / 2,
				gain:      gain,
				left:      append([]int(nil), order[:s]...),
				right:     append([]int(nil), order[s:]...),
			}
		}
	}

	return best, best.feature >= 0
}

func (b *builder) impurity(counts []int) float64 {
	if b.tree.criterion == CriterionEntropy {
		return entropy(counts)
	}
	return gini(counts)
}

func gini(counts []int) float64 {
	var n float64
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropy(counts []int) float64 {
	var n float64
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	probas := make([]float64, len(counts))
	if n == 0 {
		return probas
	}
	for i, c := range counts {
		probas[i] = float64(c) / float64(n)
	}
	return probas
}

func argmax(vals []float64) int {
	best := 0
	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}
	return best
}

func argmaxInt(vals []int) int {
	best := 0
	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}
	return best
}

func normalize(vals []float64) {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range vals {
		vals[i] /= sum
	}
}
