// Package evaluation computes classification metrics, runs cross-validated
// grid search, and ranks feature importances.
package evaluation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flowsift/flowsift/pkg/classifiers"
)

// ConfusionMatrix tallies binary predictions against ground truth.
// Label 1 is the positive (anomalous) class.
type ConfusionMatrix struct {
	TP int // predicted 1, actual 1
	FP int // predicted 1, actual 0
	FN int // predicted 0, actual 1
	TN int // predicted 0, actual 0
}

// Confusion builds the matrix from aligned label slices.
func Confusion(yTrue, yPred []int) (ConfusionMatrix, error) {
	var m ConfusionMatrix
	if len(yTrue) != len(yPred) {
		return m, errors.New("evaluation: label slices differ in length")
	}
	if len(yTrue) == 0 {
		return m, errors.New("evaluation: empty label slices")
	}

	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			m.TP++
		case yPred[i] == 1 && yTrue[i] != 1:
			m.FP++
		case yPred[i] != 1 && yTrue[i] == 1:
			m.FN++
		default:
			m.TN++
		}
	}
	return m, nil
}

// Total returns the number of scored samples.
func (m ConfusionMatrix) Total() int {
	return m.TP + m.FP + m.FN + m.TN
}

// Accuracy is the fraction of correct predictions.
func (m ConfusionMatrix) Accuracy() float64 {
	if m.Total() == 0 {
		return 0
	}
	return float64(m.TP+m.TN) / float64(m.Total())
}

// Precision is TP / (TP + FP).
func (m ConfusionMatrix) Precision() float64 {
	if m.TP+m.FP == 0 {
		return 0
	}
	return float64(m.TP) / float64(m.TP+m.FP)
}

// Recall is TP / (TP + FN).
func (m ConfusionMatrix) Recall() float64 {
	if m.TP+m.FN == 0 {
		return 0
	}
	return float64(m.TP) / float64(m.TP+m.FN)
}

// F1 is the harmonic mean of precision and recall.
func (m ConfusionMatrix) F1() float64 {
	p, r := m.Precision(), m.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Accuracy is the fraction of matching labels.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// Report is the full evaluation record for one trained model.
type Report struct {
	Model         string
	Confusion     ConfusionMatrix
	TrainDuration time.Duration
	TestSize      int
}

// Evaluate trains the model on the train partition, times the fit, scores
// the test partition, and assembles the report.
func Evaluate(name string, c classifiers.Classifier, Xtrain [][]float64, ytrain []int, Xtest [][]float64, ytest []int) (*Report, error) {
	start := time.Now()
	if err := c.Fit(Xtrain, ytrain); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	report, err := Score(name, c, Xtest, ytest)
	if err != nil {
		return nil, err
	}
	report.TrainDuration = elapsed
	return report, nil
}

// Score evaluates an already-trained model on a labeled test set.
func Score(name string, c classifiers.Classifier, Xtest [][]float64, ytest []int) (*Report, error) {
	yPred, err := c.Predict(Xtest)
	if err != nil {
		return nil, err
	}

	m, err := Confusion(ytest, yPred)
	if err != nil {
		return nil, err
	}

	return &Report{
		Model:     name,
		Confusion: m,
		TestSize:  len(ytest),
	}, nil
}

// String renders the report as a console block.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", r.Model)
	fmt.Fprintf(&b, "accuracy : %.4f\n", r.Confusion.Accuracy())
	fmt.Fprintf(&b, "precision: %.4f\n", r.Confusion.Precision())
	fmt.Fprintf(&b, "recall   : %.4f\n", r.Confusion.Recall())
	fmt.Fprintf(&b, "f1       : %.4f\n", r.Confusion.F1())
	if r.TrainDuration > 0 {
		fmt.Fprintf(&b, "train    : %s\n", r.TrainDuration)
	}
	fmt.Fprintf(&b, "confusion (rows actual, cols predicted):\n")
	fmt.Fprintf(&b, "          pred=0  pred=1\n")
	fmt.Fprintf(&b, "actual=0 %7d %7d\n", r.Confusion.TN, r.Confusion.FP)
	fmt.Fprintf(&b, "actual=1 %7d %7d\n", r.Confusion.FN, r.Confusion.TP)
	return b.String()
}
