package evaluation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsift/flowsift/pkg/dataset"
)

func separableDataset(n int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := &dataset.Dataset{
		Cols: []string{"signal", "noise"},
		X:    make([][]float64, n),
		Y:    make([]int, n),
	}
	for i := range ds.X {
		row := []float64{0, rng.NormFloat64()}
		if i%2 == 0 {
			row[0] = -2 + rng.NormFloat64()*0.3
		} else {
			row[0] = 2 + rng.NormFloat64()*0.3
			ds.Y[i] = 1
		}
		ds.X[i] = row
	}
	return ds
}

func TestGridExpand(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
		want int
	}{
		{name: "empty grid yields one default point", grid: Grid{}, want: 1},
		{name: "single dimension", grid: Grid{Trees: []int{10, 50, 100}}, want: 3},
		{
			name: "cartesian product",
			grid: Grid{Trees: []int{10, 50}, MaxDepths: []int{3, 5, 0}, MinSamplesSplits: []int{2, 4}},
			want: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.grid.expand(), tt.want)
		})
	}
}

func TestGridSearch(t *testing.T) {
	ds := separableDataset(120, 42)
	grid := Grid{
		Trees:     []int{10, 20},
		MaxDepths: []int{3, 0},
	}

	result, err := GridSearch(ds, grid, 3, 42)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 4)

	for _, cand := range result.Candidates {
		require.Len(t, cand.FoldScores, 3)
		assert.LessOrEqual(t, cand.MeanAccuracy, result.Best.MeanAccuracy)
	}

	// The data is cleanly separable, so the winner should be near-perfect.
	assert.GreaterOrEqual(t, result.Best.MeanAccuracy, 0.9)
}

func TestGridSearchBadFolds(t *testing.T) {
	ds := separableDataset(30, 42)

	_, err := GridSearch(ds, Grid{}, 1, 42)
	assert.Error(t, err)

	_, err = GridSearch(ds, Grid{}, 31, 42)
	assert.Error(t, err)
}

func TestGridSearchInvalidDataset(t *testing.T) {
	ds := &dataset.Dataset{X: [][]float64{{1}}, Y: []int{0, 1}}

	_, err := GridSearch(ds, Grid{}, 2, 42)
	assert.Error(t, err)
}
