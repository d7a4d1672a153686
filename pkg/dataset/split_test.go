package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowSet keys rows by their first feature, which tests keep unique.
func rowSet(ds *Dataset) map[float64]bool {
	set := make(map[float64]bool, ds.NumRows())
	for _, row := range ds.X {
		set[row[0]] = true
	}
	return set
}

func sequential(n int, label func(i int) int) *Dataset {
	ds := &Dataset{}
	for i := 0; i < n; i++ {
		ds.X = append(ds.X, []float64{float64(i), float64(i) * 2})
		ds.Y = append(ds.Y, label(i))
	}
	return ds
}

func TestSplitDisjointExhaustive(t *testing.T) {
	ds := sequential(150, func(i int) int { return i % 2 })

	train, test, err := Split(ds, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, 30, test.NumRows())
	assert.Equal(t, 120, train.NumRows())

	trainSet, testSet := rowSet(train), rowSet(test)
	for key := range testSet {
		assert.False(t, trainSet[key], "row %v in both partitions", key)
	}
	assert.Len(t, trainSet, 120)
	assert.Len(t, testSet, 30)
}

func TestSplitBadRatio(t *testing.T) {
	ds := sequential(10, func(i int) int { return 0 })

	for _, ratio := range []float64{0, 1, -0.5, 1.5} {
		_, _, err := Split(ds, ratio, 42)
		assert.Error(t, err, "ratio %v", ratio)
	}
}

func TestStratifiedSplitPreservesProportions(t *testing.T) {
	// 100 class-0 rows then 50 class-1 rows.
	ds := sequential(150, func(i int) int {
		if i < 100 {
			return 0
		}
		return 1
	})

	train, test, err := StratifiedSplit(ds, 0.2, 42)
	require.NoError(t, err)

	countLabels := func(d *Dataset) (zeros, ones int) {
		for _, y := range d.Y {
			if y == 0 {
				zeros++
			} else {
				ones++
			}
		}
		return
	}

	testZeros, testOnes := countLabels(test)
	assert.Equal(t, 20, testZeros)
	assert.Equal(t, 10, testOnes)

	trainZeros, trainOnes := countLabels(train)
	assert.Equal(t, 80, trainZeros)
	assert.Equal(t, 40, trainOnes)
}

func TestSplitConcatPreservesSourceRatio(t *testing.T) {
	normal := sequential(60, func(i int) int { return 0 })
	anomalous := &Dataset{}
	for i := 0; i < 30; i++ {
		anomalous.X = append(anomalous.X, []float64{float64(1000 + i), 0})
		anomalous.Y = append(anomalous.Y, 1)
	}

	train, test, err := SplitConcat([]*Dataset{normal, anomalous}, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, 72, train.NumRows())
	assert.Equal(t, 18, test.NumRows())

	var testOnes int
	for _, y := range test.Y {
		if y == 1 {
			testOnes++
		}
	}
	// 0.2 of each source lands in test: 12 normal, 6 anomalous.
	assert.Equal(t, 6, testOnes)
}

func TestSplitConcatWidthMismatch(t *testing.T) {
	a := &Dataset{X: [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}}, Y: []int{0, 0, 0, 0}}
	b := &Dataset{X: [][]float64{{1}, {2}, {3}, {4}}, Y: []int{1, 1, 1, 1}}

	_, _, err := SplitConcat([]*Dataset{a, b}, 0.25, 42)
	assert.Error(t, err)
}

func TestKFold(t *testing.T) {
	folds, err := KFold(10, 3, 42)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	seen := make(map[int]int)
	for _, fold := range folds {
		for _, idx := range fold {
			seen[idx]++
		}
	}
	require.Len(t, seen, 10)
	for idx, count := range seen {
		assert.Equal(t, 1, count, "index %d in %d folds", idx, count)
	}
}

func TestKFoldErrors(t *testing.T) {
	_, err := KFold(10, 1, 42)
	assert.Error(t, err)

	_, err = KFold(2, 5, 42)
	assert.Error(t, err)
}
