package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowsift/flowsift/pkg/classifiers"
	"github.com/flowsift/flowsift/pkg/classifiers/bagging"
	"github.com/flowsift/flowsift/pkg/classifiers/cart"
	"github.com/flowsift/flowsift/pkg/classifiers/forest"
	"github.com/flowsift/flowsift/pkg/classifiers/pcaforest"
	"github.com/flowsift/flowsift/pkg/dataset"
	"github.com/flowsift/flowsift/pkg/evaluation"
	"github.com/flowsift/flowsift/pkg/modelfile"
)

var trainFlags struct {
	dataFlags

	model           string
	trees           int
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	components      int
	testRatio       float64
	stratify        bool
	scale           bool
	out             string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a classifier and report test metrics",
	Long: `Train splits the dataset into train/test partitions, fits the
chosen model, and prints accuracy, precision, recall, F1, the confusion
matrix, and the training duration.

With --data the split is stratified by label. With --normal/--anomalous
each source file is split independently and the pieces concatenated, so
the class ratio of both partitions follows the source sizes.`,
	RunE: runTrain,
}

func init() {
	trainFlags.register(trainCmd)
	trainCmd.Flags().StringVar(&trainFlags.model, "model", modelfile.KindForest,
		"model kind: cart, bagging, forest, pcaforest")
	trainCmd.Flags().IntVar(&trainFlags.trees, "trees", 100, "number of trees (ensembles)")
	trainCmd.Flags().IntVar(&trainFlags.maxDepth, "max-depth", 0, "max tree depth, 0 = unlimited")
	trainCmd.Flags().IntVar(&trainFlags.minSamplesSplit, "min-samples-split", 2, "min samples to split a node")
	trainCmd.Flags().IntVar(&trainFlags.maxFeatures, "max-features", 0, "features per split, 0 = default")
	trainCmd.Flags().IntVar(&trainFlags.components, "components", 2, "principal components (pcaforest)")
	trainCmd.Flags().Float64Var(&trainFlags.testRatio, "test-ratio", 0.2, "test partition fraction")
	trainCmd.Flags().BoolVar(&trainFlags.stratify, "stratify", true, "stratify the split by label (--data mode)")
	trainCmd.Flags().BoolVar(&trainFlags.scale, "scale", false, "standardize features on train statistics")
	trainCmd.Flags().StringVar(&trainFlags.out, "out", "", "write the trained model to this file")

	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	train, test, err := splitForTraining()
	if err != nil {
		return err
	}
	log.Info().
		Int("train_rows", train.NumRows()).
		Int("test_rows", test.NumRows()).
		Int("features", train.NumFeatures()).
		Msg("dataset partitioned")

	if !train.IsBinary() {
		log.Warn().Ints("classes", train.Classes()).Msg("labels are not binary {0,1}")
	}

	var scaler *dataset.StandardScaler
	if trainFlags.scale {
		scaler = dataset.NewStandardScaler()
		if train.X, err = scaler.FitTransform(train.X); err != nil {
			return err
		}
		if test.X, err = scaler.Transform(test.X); err != nil {
			return err
		}
		log.Debug().Msg("features standardized")
	}

	model, err := buildModel(trainFlags.model)
	if err != nil {
		return err
	}

	report, err := evaluation.Evaluate(trainFlags.model, model, train.X, train.Y, test.X, test.Y)
	if err != nil {
		return err
	}
	fmt.Print(report)

	if trainFlags.out != "" {
		if err := modelfile.Save(trainFlags.out, trainFlags.model, model, scaler); err != nil {
			return err
		}
		log.Info().Str("path", trainFlags.out).Msg("model saved")
	}
	return nil
}

// splitForTraining builds the train/test partitions for the selected
// source layout.
func splitForTraining() (train, test *dataset.Dataset, err error) {
	if trainFlags.twoSource() {
		sources, err := trainFlags.loadSources()
		if err != nil {
			return nil, nil, err
		}
		return dataset.SplitConcat(sources, trainFlags.testRatio, seed)
	}

	ds, err := trainFlags.loadMerged()
	if err != nil {
		return nil, nil, err
	}
	if trainFlags.stratify {
		return dataset.StratifiedSplit(ds, trainFlags.testRatio, seed)
	}
	return dataset.Split(ds, trainFlags.testRatio, seed)
}

// buildModel constructs the classifier selected by --model.
func buildModel(kind string) (classifiers.Classifier, error) {
	switch kind {
	case modelfile.KindCART:
		return cart.New(
			cart.WithMaxDepth(trainFlags.maxDepth),
			cart.WithMinSamplesSplit(trainFlags.minSamplesSplit),
			cart.WithMaxFeatures(trainFlags.maxFeatures),
			cart.WithSeed(seed),
		), nil
	case modelfile.KindBagging:
		return bagging.New(
			bagging.WithEstimators(trainFlags.trees),
			bagging.WithMaxDepth(trainFlags.maxDepth),
			bagging.WithMinSamplesSplit(trainFlags.minSamplesSplit),
			bagging.WithSeed(seed),
		), nil
	case modelfile.KindForest:
		return forest.New(
			forest.WithTrees(trainFlags.trees),
			forest.WithMaxDepth(trainFlags.maxDepth),
			forest.WithMinSamplesSplit(trainFlags.minSamplesSplit),
			forest.WithMaxFeatures(trainFlags.maxFeatures),
			forest.WithSeed(seed),
		), nil
	case modelfile.KindPCAForest:
		return pcaforest.New(
			pcaforest.WithComponents(trainFlags.components),
			pcaforest.WithForestOptions(
				forest.WithTrees(trainFlags.trees),
				forest.WithMaxDepth(trainFlags.maxDepth),
				forest.WithMinSamplesSplit(trainFlags.minSamplesSplit),
				forest.WithSeed(seed),
			),
		), nil
	}
	return nil, fmt.Errorf("unknown model kind %q", kind)
}
