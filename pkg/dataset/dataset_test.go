package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ds      *Dataset
		wantErr bool
	}{
		{
			name:    "empty",
			ds:      &Dataset{},
			wantErr: true,
		},
		{
			name: "valid",
			ds: &Dataset{
				X: [][]float64{{1, 2}, {3, 4}},
				Y: []int{0, 1},
			},
			wantErr: false,
		},
		{
			name: "label count mismatch",
			ds: &Dataset{
				X: [][]float64{{1, 2}, {3, 4}},
				Y: []int{0},
			},
			wantErr: true,
		},
		{
			name: "ragged rows",
			ds: &Dataset{
				X: [][]float64{{1, 2}, {3}},
				Y: []int{0, 1},
			},
			wantErr: true,
		},
		{
			name: "column name count mismatch",
			ds: &Dataset{
				Cols: []string{"a"},
				X:    [][]float64{{1, 2}},
				Y:    []int{0},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ds.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClasses(t *testing.T) {
	ds := &Dataset{
		X: [][]float64{{1}, {2}, {3}, {4}},
		Y: []int{1, 0, 1, 2},
	}
	assert.Equal(t, []int{0, 1, 2}, ds.Classes())
}

func TestIsBinary(t *testing.T) {
	binary := &Dataset{X: [][]float64{{1}, {2}}, Y: []int{0, 1}}
	assert.True(t, binary.IsBinary())

	ternary := &Dataset{X: [][]float64{{1}, {2}}, Y: []int{0, 2}}
	assert.False(t, ternary.IsBinary())

	empty := &Dataset{}
	assert.False(t, empty.IsBinary())
}

func TestSubset(t *testing.T) {
	ds := &Dataset{
		Cols: []string{"a", "b"},
		X:    [][]float64{{1, 2}, {3, 4}, {5, 6}},
		Y:    []int{0, 1, 0},
	}

	sub := ds.Subset([]int{2, 0})
	require.Equal(t, 2, sub.NumRows())
	assert.Equal(t, []float64{5, 6}, sub.X[0])
	assert.Equal(t, []float64{1, 2}, sub.X[1])
	assert.Equal(t, []int{0, 0}, sub.Y)
	assert.Equal(t, ds.Cols, sub.Cols)
}

func TestConcat(t *testing.T) {
	a := &Dataset{X: [][]float64{{1, 2}}, Y: []int{0}}
	b := &Dataset{Cols: []string{"x", "y"}, X: [][]float64{{3, 4}}, Y: []int{1}}

	merged, err := a.Concat(b)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.NumRows())
	assert.Equal(t, []int{0, 1}, merged.Y)
	assert.Equal(t, []string{"x", "y"}, merged.Cols)
}

func TestConcatWidthMismatch(t *testing.T) {
	a := &Dataset{X: [][]float64{{1, 2}}, Y: []int{0}}
	b := &Dataset{X: [][]float64{{3}}, Y: []int{1}}

	_, err := a.Concat(b)
	assert.Error(t, err)
}
