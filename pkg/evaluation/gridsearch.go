package evaluation

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/flowsift/flowsift/pkg/classifiers/forest"
	"github.com/flowsift/flowsift/pkg/dataset"
)

// Grid enumerates the random-forest hyperparameter values to try.
// Empty dimensions fall back to a single default value.
type Grid struct {
	Trees            []int
	MaxDepths        []int
	MinSamplesSplits []int
	MaxFeatures      []int
}

// Params is one point of the grid.
type Params struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Params
	FoldScores   []float64
	MeanAccuracy float64
}

// SearchResult holds every candidate plus the winner.
type SearchResult struct {
	Best       Candidate
	Candidates []Candidate
}

// GridSearch scores every grid point with k-fold cross validation on the
// given dataset and returns the candidate with the best mean accuracy.
// Candidates are evaluated concurrently, bounded by GOMAXPROCS.
func GridSearch(ds *dataset.Dataset, grid Grid, folds int, seed int64) (*SearchResult, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	foldIdx, err := dataset.KFold(ds.NumRows(), folds, seed)
	if err != nil {
		return nil, err
	}

	points := grid.expand()
	candidates := make([]Candidate, len(points))

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	errCh := make(chan error, len(points))

	for i, params := range points {
		wg.Add(1)
		go func(i int, params Params) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cand, err := crossValidate(ds, params, foldIdx, seed)
			if err != nil {
				errCh <- err
				return
			}
			candidates[i] = cand
		}(i, params)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.MeanAccuracy > best.MeanAccuracy {
			best = cand
		}
	}
	return &SearchResult{Best: best, Candidates: candidates}, nil
}

// crossValidate trains one forest per fold and averages held-out accuracy.
func crossValidate(ds *dataset.Dataset, params Params, folds [][]int, seed int64) (Candidate, error) {
	cand := Candidate{Params: params, FoldScores: make([]float64, 0, len(folds))}

	for i := range folds {
		var trainIdx []int
		for j, fold := range folds {
			if j != i {
				trainIdx = append(trainIdx, fold...)
			}
		}
		train := ds.Subset(trainIdx)
		test := ds.Subset(folds[i])

		model := forest.New(
			forest.WithTrees(params.Trees),
			forest.WithMaxDepth(params.MaxDepth),
			forest.WithMinSamplesSplit(params.MinSamplesSplit),
			forest.WithMaxFeatures(params.MaxFeatures),
			forest.WithSeed(seed),
		)
		if err := model.Fit(train.X, train.Y); err != nil {
			return cand, fmt.Errorf("evaluation: fold %d: %w", i, err)
		}
		yPred, err := model.Predict(test.X)
		if err != nil {
			return cand, fmt.Errorf("evaluation: fold %d: %w", i, err)
		}
		cand.FoldScores = append(cand.FoldScores, Accuracy(test.Y, yPred))
	}

	var sum float64
	for _, s := range cand.FoldScores {
		sum += s
	}
	cand.MeanAccuracy = sum / float64(len(cand.FoldScores))
	return cand, nil
}

// expand produces the cartesian product of the grid dimensions.
func (g Grid) expand() []Params {
	trees := orDefault(g.Trees, 100)
	depths := orDefault(g.MaxDepths, 0)
	splits := orDefault(g.MinSamplesSplits, 2)
	features := orDefault(g.MaxFeatures, 0)

	out := make([]Params, 0, len(trees)*len(depths)*len(splits)*len(features))
	for _, t := range trees {
		for _, d := range depths {
			for _, s := range splits {
				for _, f := range features {
					out = append(out, Params{
						Trees:           t,
						MaxDepth:        d,
						MinSamplesSplit: s,
						MaxFeatures:     f,
					})
				}
			}
		}
	}
	return out
}

func orDefault(vals []int, def int) []int {
	if len(vals) == 0 {
		return []int{def}
	}
	return vals
}
