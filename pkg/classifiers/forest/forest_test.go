package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsift/flowsift/pkg/classifiers"
)

func separable(n, features int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		row := make([]float64, features)
		for j := 1; j < features; j++ {
			row[j] = rng.NormFloat64()
		}
		if i%2 == 0 {
			row[0] = -2 + rng.NormFloat64()*0.3
		} else {
			row[0] = 2 + rng.NormFloat64()*0.3
			y[i] = 1
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
	X, y := separable(400, 5, 42)

	f := New(WithTrees(50), WithSeed(42))
	require.NoError(t, f.Fit(X, y))

	testX, testY := separable(100, 5, 7)
	preds, err := f.Predict(testX)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(testY, preds), 0.95)
}

func TestFitErrors(t *testing.T) {
	f := New(WithTrees(5))

	assert.ErrorIs(t, f.Fit(nil, nil), classifiers.ErrEmptyTrainingData)
	assert.ErrorIs(t, f.Fit([][]float64{{1}}, []int{0, 1}), classifiers.ErrDimensionMismatch)
}

func TestPredictBeforeFit(t *testing.T) {
	_, err := New().Predict([][]float64{{1}})
	assert.ErrorIs(t, err, classifiers.ErrNotTrained)
}

func TestFeatureImportancesFindSignal(t *testing.T) {
	X, y := separable(400, 5, 42)

	f := New(WithTrees(50), WithSeed(42))
	require.NoError(t, f.Fit(X, y))

	imp := f.FeatureImportances()
	require.Len(t, imp, 5)

	var sum float64
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// Feature 0 carries all the signal; the noise features should trail it.
	for j := 1; j < 5; j++ {
		assert.Greater(t, imp[0], imp[j], "feature 0 should outrank feature %d", j)
	}
}

func TestMaxFeaturesDefault(t *testing.T) {
	// sqrt(9) = 3 features per split; the forest should still separate.
	X, y := separable(300, 9, 42)

	f := New(WithTrees(30), WithSeed(42))
	require.NoError(t, f.Fit(X, y))

	preds, err := f.Predict(X)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, accuracy(y, preds), 0.95)
}

func TestSaveLoad(t *testing.T) {
	X, y := separable(200, 4, 42)

	original := New(WithTrees(20), WithSeed(42))
	require.NoError(t, original.Fit(X, y))

	originalPreds, err := original.Predict(X)
	require.NoError(t, err)

	blob, err := original.Save()
	require.NoError(t, err)

	loaded := New()
	require.NoError(t, loaded.Load(blob))

	loadedPreds, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, originalPreds, loadedPreds)
	assert.Equal(t, original.Classes(), loaded.Classes())
}

func BenchmarkFit(b *testing.B) {
	X, y := separable(1000, 10, 42)
	f := New(WithTrees(50), WithSeed(42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Fit(X, y)
	}
}

func BenchmarkPredict(b *testing.B) {
	X, y := separable(1000, 10, 42)
	f := New(WithTrees(50), WithSeed(42))
	_ = f.Fit(X, y)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Predict(X)
	}
}
