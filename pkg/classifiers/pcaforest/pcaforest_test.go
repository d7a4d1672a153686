package pcaforest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsift/flowsift/pkg/classifiers"
	"github.com/flowsift/flowsift/pkg/classifiers/forest"
)

// correlated returns wide data whose classes separate along one latent
// direction smeared over all features.
func correlated(n, features int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		shift := -3.0
		if i%2 == 1 {
			shift = 3.0
			y[i] = 1
		}
		row := make([]float64, features)
		for j := range row {
			row[j] = shift + rng.NormFloat64()*0.5
		}
		X[i] = row
	}
	return X, y
}

func accuracy(yTrue, yPred []int) float64 {
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

func TestFitPredict(t *testing.T) {
	X, y := correlated(300, 8, 42)

	p := New(
		WithComponents(2),
		WithForestOptions(forest.WithTrees(30), forest.WithSeed(42)),
	)
	require.NoError(t, p.Fit(X, y))
	assert.Equal(t, 2, p.NumComponents())

	testX, testY := correlated(100, 8, 7)
	preds, err := p.Predict(testX)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(testY, preds), 0.95)
}

func TestComponentsClampedToWidth(t *testing.T) {
	X, y := correlated(100, 3, 42)

	p := New(WithComponents(10), WithForestOptions(forest.WithTrees(10), forest.WithSeed(42)))
	require.NoError(t, p.Fit(X, y))
	assert.Equal(t, 3, p.NumComponents())
}

func TestExplainedVarianceRatio(t *testing.T) {
	X, y := correlated(200, 6, 42)

	p := New(WithComponents(3), WithForestOptions(forest.WithTrees(10), forest.WithSeed(42)))
	require.NoError(t, p.Fit(X, y))

	ratios := p.ExplainedVarianceRatio()
	require.Len(t, ratios, 3)

	var sum float64
	for i, r := range ratios {
		assert.GreaterOrEqual(t, r, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, r, ratios[i-1], "ratios should be non-increasing")
		}
		sum += r
	}
	assert.LessOrEqual(t, sum, 1.0+1e-9)

	// The latent shift dominates: the leading component explains most
	// of the variance.
	assert.Greater(t, ratios[0], 0.5)
}

func TestFitErrors(t *testing.T) {
	p := New()

	assert.ErrorIs(t, p.Fit(nil, nil), classifiers.ErrEmptyTrainingData)
}

func TestPredictBeforeFit(t *testing.T) {
	_, err := New().Predict([][]float64{{1, 2}})
	assert.ErrorIs(t, err, classifiers.ErrNotTrained)
}

func TestPredictWidthMismatch(t *testing.T) {
	X, y := correlated(100, 4, 42)

	p := New(WithComponents(2), WithForestOptions(forest.WithTrees(10), forest.WithSeed(42)))
	require.NoError(t, p.Fit(X, y))

	_, err := p.Predict([][]float64{{1, 2}})
	assert.ErrorIs(t, err, classifiers.ErrDimensionMismatch)
}

func TestSaveLoad(t *testing.T) {
	X, y := correlated(200, 6, 42)

	original := New(WithComponents(2), WithForestOptions(forest.WithTrees(20), forest.WithSeed(42)))
	require.NoError(t, original.Fit(X, y))

	originalPreds, err := original.Predict(X)
	require.NoError(t, err)

	blob, err := original.Save()
	require.NoError(t, err)

	loaded := New()
	require.NoError(t, loaded.Load(blob))
	assert.Equal(t, original.NumComponents(), loaded.NumComponents())

	loadedPreds, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, originalPreds, loadedPreds)
}
