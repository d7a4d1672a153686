package evaluation

import (
	"fmt"
	"sort"
)

// FeatureScore pairs a feature with its importance.
type FeatureScore struct {
	Index int
	Name  string
	Score float64
}

// Rank sorts features by descending importance. Names are optional; when
// absent, features are named by position.
func Rank(names []string, importances []float64) ([]FeatureScore, error) {
	if len(names) > 0 && len(names) != len(importances) {
		return nil, fmt.Errorf("evaluation: %d names for %d importances", len(names), len(importances))
	}

	ranked := make([]FeatureScore, len(importances))
	for i, score := range importances {
		name := fmt.Sprintf("f%d", i)
		if len(names) > 0 {
			name = names[i]
		}
		ranked[i] = FeatureScore{Index: i, Name: name, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// CumulativeSelect returns the shortest prefix of the ranking whose share
// of total importance reaches the threshold. The feature that crosses the
// threshold is included. Threshold is clamped to (0, 1].
func CumulativeSelect(ranked []FeatureScore, threshold float64) []FeatureScore {
	if len(ranked) == 0 || threshold <= 0 {
		return nil
	}
	if threshold > 1 {
		threshold = 1
	}

	var total float64
	for _, fs := range ranked {
		total += fs.Score
	}
	if total == 0 {
		return nil
	}

	var cum float64
	for i, fs := range ranked {
		cum += fs.Score / total
		if cum >= threshold-1e-12 {
			out := make([]FeatureScore, i+1)
			copy(out, ranked[:i+1])
			return out
		}
	}

	out := make([]FeatureScore, len(ranked))
	copy(out, ranked)
	return out
}
