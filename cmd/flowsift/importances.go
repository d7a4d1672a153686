package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowsift/flowsift/pkg/charts"
	"github.com/flowsift/flowsift/pkg/classifiers/forest"
	"github.com/flowsift/flowsift/pkg/evaluation"
)

var importancesFlags struct {
	dataFlags

	trees     int
	threshold float64
	chart     string
}

var importancesCmd = &cobra.Command{
	Use:   "importances",
	Short: "Rank features by random-forest importance",
	Long: `Importances trains a random forest on the full dataset, ranks the
features by mean impurity decrease, and selects the smallest prefix of
the ranking whose cumulative importance reaches the threshold.`,
	RunE: runImportances,
}

func init() {
	importancesFlags.register(importancesCmd)
	importancesCmd.Flags().IntVar(&importancesFlags.trees, "trees", 100, "number of trees")
	importancesCmd.Flags().Float64Var(&importancesFlags.threshold, "threshold", 0.9,
		"cumulative importance cutoff for feature selection")
	importancesCmd.Flags().StringVar(&importancesFlags.chart, "chart", "",
		"write a bar chart to this file (png, svg, pdf)")

	rootCmd.AddCommand(importancesCmd)
}

func runImportances(cmd *cobra.Command, args []string) error {
	ds, err := importancesFlags.loadMerged()
	if err != nil {
		return err
	}

	model := forest.New(
		forest.WithTrees(importancesFlags.trees),
		forest.WithSeed(seed),
	)
	if err := model.Fit(ds.X, ds.Y); err != nil {
		return err
	}

	ranked, err := evaluation.Rank(ds.Cols, model.FeatureImportances())
	if err != nil {
		return err
	}

	fmt.Printf("%-4s %-24s %10s %10s\n", "rank", "feature", "score", "cum")
	var cum float64
	for i, fs := range ranked {
		cum += fs.Score
		fmt.Printf("%-4d %-24s %10.4f %10.4f\n", i+1, fs.Name, fs.Score, cum)
	}

	selected := evaluation.CumulativeSelect(ranked, importancesFlags.threshold)
	fmt.Printf("\n%d of %d features reach %.0f%% cumulative importance\n",
		len(selected), len(ranked), importancesFlags.threshold*100)

	if importancesFlags.chart != "" {
		if err := charts.SaveImportances(ranked, importancesFlags.chart); err != nil {
			return err
		}
		log.Info().Str("path", importancesFlags.chart).Msg("chart saved")
	}
	return nil
}
