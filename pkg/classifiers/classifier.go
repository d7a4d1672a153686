// Package classifiers defines the common contract for supervised
// classification models.
package classifiers

import "errors"

// Shared failure modes for all model implementations.
var (
	// ErrNotTrained is returned when Predict is called before Fit.
	ErrNotTrained = errors.New("classifiers: model not trained")

	// ErrEmptyTrainingData is returned when Fit receives no samples.
	ErrEmptyTrainingData = errors.New("classifiers: empty training data")

	// ErrDimensionMismatch is returned when sample width or label count
	// does not match the data the model was trained on.
	ErrDimensionMismatch = errors.New("classifiers: dimension mismatch")
)

// Classifier is the common interface for all supervised models.
type Classifier interface {
	// Fit trains the model. X is a 2D slice where each row is a sample
	// and each column is a feature; y holds the class label of each row.
	Fit(X [][]float64, y []int) error

	// Predict returns the predicted class label for each sample.
	Predict(X [][]float64) ([]int, error)

	// PredictProba returns per-class probability vectors, with columns
	// ordered by ascending class label.
	PredictProba(X [][]float64) ([][]float64, error)

	// Classes returns the class labels seen during training, ascending.
	Classes() []int

	// Save serializes the trained model to bytes.
	Save() ([]byte, error)

	// Load deserializes a trained model from bytes.
	Load(data []byte) error
}

// ImportanceRanker is implemented by models that expose per-feature
// contribution scores. Scores are non-negative and sum to 1.
type ImportanceRanker interface {
	FeatureImportances() []float64
}

// ValidateTrainingData checks the basic shape invariants shared by every
// Fit implementation and returns the sample and feature counts.
func ValidateTrainingData(X [][]float64, y []int) (n, p int, err error) {
	if len(X) == 0 {
		return 0, 0, ErrEmptyTrainingData
	}
	if len(y) != len(X) {
		return 0, 0, ErrDimensionMismatch
	}
	p = len(X[0])
	for _, row := range X {
		if len(row) != p {
			return 0, 0, ErrDimensionMismatch
		}
	}
	return len(X), p, nil
}

// UniqueClasses returns the sorted distinct labels in y.
func UniqueClasses(y []int) []int {
	seen := make(map[int]struct{}, 2)
	var classes []int
	for _, label := range y {
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
