// Package ensemble holds the machinery shared by tree ensembles:
// bootstrap sampling, concurrent scoring, and vote averaging.
package ensemble

import (
	"math/rand"
	"sync"

	"github.com/flowsift/flowsift/pkg/classifiers/cart"
)

// Bootstrap draws n samples with replacement from X and y.
func Bootstrap(rng *rand.Rand, X [][]float64, y []int) ([][]float64, []int) {
	n := len(X)
	sampleX := make([][]float64, n)
	sampleY := make([]int, n)
	for j := 0; j < n; j++ {
		k := rng.Intn(n)
		sampleX[j] = X[k]
		sampleY[j] = y[k]
	}
	return sampleX, sampleY
}

// AverageProbas scores X with every tree concurrently and averages the
// class distributions, mapping each tree's class order onto the global one.
func AverageProbas(trees []*cart.Tree, classes []int, X [][]float64) ([][]float64, error) {
	classIdx := make(map[int]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	perTree := make([][][]float64, len(trees))
	var wg sync.WaitGroup
	errCh := make(chan error, len(trees))

	for i, tree := range trees {
		wg.Add(1)
		go func(i int, tree *cart.Tree) {
			defer wg.Done()
			probas, err := tree.PredictProba(X)
			if err != nil {
				errCh <- err
				return
			}
			perTree[i] = probas
		}(i, tree)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(classes))
	}
	for t, tree := range trees {
		treeClasses := tree.Classes()
		for i, probas := range perTree[t] {
			for j, p := range probas {
				out[i][classIdx[treeClasses[j]]] += p
			}
		}
	}
	for i := range out {
		for j := range out[i] {
			out[i][j] /= float64(len(trees))
		}
	}
	return out, nil
}

// AverageImportances averages per-tree importance vectors. Tree
// importances are already normalized, so the mean is too.
func AverageImportances(trees []*cart.Tree) []float64 {
	if len(trees) == 0 {
		return nil
	}

	first := trees[0].FeatureImportances()
	out := make([]float64, len(first))
	copy(out, first)
	for _, tree := range trees[1:] {
		for j, v := range tree.FeatureImportances() {
			out[j] += v
		}
	}
	for j := range out {
		out[j] /= float64(len(trees))
	}
	return out
}

// Argmax returns the index of the largest value.
func Argmax(vals []float64) int {
	best := 0
	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}
	return best
}

// EncodeTrees serializes every tree.
func EncodeTrees(trees []*cart.Tree) ([][]byte, error) {
	blobs := make([][]byte, len(trees))
	for i, tree := range trees {
		blob, err := tree.Save()
		if err != nil {
			return nil, err
		}
		blobs[i] = blob
	}
	return blobs, nil
}

// DecodeTrees deserializes trees saved by EncodeTrees.
func DecodeTrees(blobs [][]byte) ([]*cart.Tree, error) {
	trees := make([]*cart.Tree, len(blobs))
	for i, blob := range blobs {
		tree := cart.New()
		if err := tree.Load(blob); err != nil {
			return nil, err
		}
		trees[i] = tree
	}
	return trees, nil
}
