// Package dataset provides labeled tabular datasets: CSV loading,
// train/test partitioning, and feature scaling.
package dataset

import (
	"errors"
	"fmt"
)

// Dataset is a table of numeric feature rows with one integer class label
// per row. Once loaded it is treated as immutable; transforms return new
// datasets.
type Dataset struct {
	Cols []string    // feature column names; empty when the source had no header
	X    [][]float64 // row-major feature matrix
	Y    []int       // class labels aligned with X
}

// NumRows returns the number of samples.
func (d *Dataset) NumRows() int {
	return len(d.X)
}

// NumFeatures returns the feature count, or 0 for an empty dataset.
func (d *Dataset) NumFeatures() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// Classes returns the distinct labels, ascending.
func (d *Dataset) Classes() []int {
	seen := make(map[int]struct{}, 2)
	var classes []int
	for _, label := range d.Y {
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			classes = append(classes, label)
		}
	}
	for i := 1; i < len(classes); i++ {
		for j := i; j > 0 && classes[j] < classes[j-1]; j-- {
			classes[j], classes[j-1] = classes[j-1], classes[j]
		}
	}
	return classes
}

// IsBinary reports whether every label is 0 or 1.
func (d *Dataset) IsBinary() bool {
	for _, label := range d.Y {
		if label != 0 && label != 1 {
			return false
		}
	}
	return len(d.Y) > 0
}

// Validate checks the structural invariants: non-empty, rectangular X,
// matching label count, and column names (when present) matching width.
func (d *Dataset) Validate() error {
	if len(d.X) == 0 {
		return errors.New("dataset: no rows")
	}
	if len(d.Y) != len(d.X) {
		return fmt.Errorf("dataset: %d rows but %d labels", len(d.X), len(d.Y))
	}
	width := len(d.X[0])
	for i, row := range d.X {
		if len(row) != width {
			return fmt.Errorf("dataset: row %d has %d features, want %d", i, len(row), width)
		}
	}
	if len(d.Cols) > 0 && len(d.Cols) != width {
		return fmt.Errorf("dataset: %d column names for %d features", len(d.Cols), width)
	}
	return nil
}

// Subset returns a new dataset holding the rows at the given indices.
// Rows are shared, not copied.
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		Cols: d.Cols,
		X:    make([][]float64, len(indices)),
		Y:    make([]int, len(indices)),
	}
	for i, idx := range indices {
		out.X[i] = d.X[idx]
		out.Y[i] = d.Y[idx]
	}
	return out
}

// Concat appends the rows of other to d and returns the result. Column
// names are taken from whichever dataset has them.
func (d *Dataset) Concat(other *Dataset) (*Dataset, error) {
	if d.NumRows() > 0 && other.NumRows() > 0 && d.NumFeatures() != other.NumFeatures() {
		return nil, fmt.Errorf("dataset: cannot concat %d-feature and %d-feature rows",
			d.NumFeatures(), other.NumFeatures())
	}

	cols := d.Cols
	if len(cols) == 0 {
		cols = other.Cols
	}

	out := &Dataset{
		Cols: cols,
		X:    make([][]float64, 0, len(d.X)+len(other.X)),
		Y:    make([]int, 0, len(d.Y)+len(other.Y)),
	}
	out.X = append(append(out.X, d.X...), other.X...)
	out.Y = append(append(out.Y, d.Y...), other.Y...)
	return out, nil
}
