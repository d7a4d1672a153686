package dataset

import (
	"fmt"
	"math/rand"
)

// Split partitions the dataset into disjoint train and test sets by a
// shuffled index permutation.
func Split(d *Dataset, testRatio float64, seed int64) (train, test *Dataset, err error) {
	if err := checkSplitArgs(d, testRatio); err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(d.NumRows())
	nTest := int(float64(d.NumRows()) * testRatio)

	return d.Subset(perm[nTest:]), d.Subset(perm[:nTest]), nil
}

// StratifiedSplit partitions the dataset while preserving per-class label
// proportions: each class is permuted and cut independently.
func StratifiedSplit(d *Dataset, testRatio float64, seed int64) (train, test *Dataset, err error) {
	if err := checkSplitArgs(d, testRatio); err != nil {
		return nil, nil, err
	}

	byClass := make(map[int][]int)
	for i, label := range d.Y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, label := range d.Classes() {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(float64(len(indices)) * testRatio)
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}

	// Interleave classes again so batch order carries no signal.
	rng.Shuffle(len(trainIdx), func(i, j int) {
		trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i]
	})
	rng.Shuffle(len(testIdx), func(i, j int) {
		testIdx[i], testIdx[j] = testIdx[j], testIdx[i]
	})

	return d.Subset(trainIdx), d.Subset(testIdx), nil
}

// SplitConcat splits each source independently and concatenates the
// pieces. With one source per class this pins the class ratio of both
// partitions to the source sizes instead of relying on stratification
// over a merged table.
func SplitConcat(sources []*Dataset, testRatio float64, seed int64) (train, test *Dataset, err error) {
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("dataset: no sources")
	}

	train, test = &Dataset{}, &Dataset{}
	for i, src := range sources {
		srcTrain, srcTest, err := Split(src, testRatio, seed+int64(i))
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: source %d: %w", i, err)
		}
		if train, err = train.Concat(srcTrain); err != nil {
			return nil, nil, err
		}
		if test, err = test.Concat(srcTest); err != nil {
			return nil, nil, err
		}
	}

	shuffleRows(train, seed)
	shuffleRows(test, seed+1)
	return train, test, nil
}

// KFold returns k disjoint index folds covering [0, n) in round-robin
// order over a shuffled permutation.
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("dataset: need at least 2 folds, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("dataset: %d rows cannot fill %d folds", n, k)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	folds := make([][]int, k)
	for i, idx := range perm {
		folds[i%k] = append(folds[i%k], idx)
	}
	return folds, nil
}

func checkSplitArgs(d *Dataset, testRatio float64) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if testRatio <= 0 || testRatio >= 1 {
		return fmt.Errorf("dataset: test ratio %v outside (0, 1)", testRatio)
	}
	return nil
}

func shuffleRows(d *Dataset, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(d.X), func(i, j int) {
		d.X[i], d.X[j] = d.X[j], d.X[i]
		d.Y[i], d.Y[j] = d.Y[j], d.Y[i]
	})
}
