package bagging

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

func TestFitPredict(t *testing.T) {
	X, y := separable(300, 4, 42)

	e := New(WithEstimators(20), WithSeed(42))
	require.NoError(t, e.Fit(X, y))

	preds, err := e.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, preds)
	assert.Equal(t, []int{0, 1}, e.Classes())
}

func TestFitErrors(t *testing.T) {
	e := New(WithEstimators(5))

	assert.ErrorIs(t, e.Fit(nil, nil), classifiers.ErrEmptyTrainingData)
	assert.ErrorIs(t, e.Fit([][]float64{{1}}, []int{0, 1}), classifiers.ErrDimensionMismatch)
}

func TestPredictBeforeFit(t *testing.T) {
	_, err := New().Predict([][]float64{{1}})
	assert.ErrorIs(t, err, classifiers.ErrNotTrained)
}

func TestPredictProbaAveraged(t *testing.T) {
	X, y := separable(200, 3, 42)

	e := New(WithEstimators(10), WithSeed(42))
	require.NoError(t, e.Fit(X, y))

	probas, err := e.PredictProba(X[:10])
	require.NoError(t, err)
	for _, p := range probas {
		require.Len(t, p, 2)
		var sum float64
		for _, v := range p {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestFeatureImportances(t *testing.T) {
	X, y := separable(300, 4, 42)

	e := New(WithEstimators(10), WithSeed(42))
	require.NoError(t, e.Fit(X, y))

	imp := e.FeatureImportances()
	require.Len(t, imp, 4)

	var sum float64
	for _, v := range imp {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestSaveLoad(t *testing.T) {
	X, y := separable(200, 3, 42)

	original := New(WithEstimators(10), WithSeed(42))
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
}

func BenchmarkFit(b *testing.B) {
	X, y := separable(1000, 8, 42)
	e := New(WithEstimators(20), WithSeed(42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Fit(X, y)
	}
}
