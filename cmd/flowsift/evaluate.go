package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowsift/flowsift/pkg/evaluation"
	"github.com/flowsift/flowsift/pkg/modelfile"
)

var evaluateFlags struct {
	dataFlags
	modelFile string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a labeled dataset with a saved model",
	RunE:  runEvaluate,
}

func init() {
	evaluateFlags.register(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateFlags.modelFile, "model-file", "", "saved model file (required)")
	_ = evaluateCmd.MarkFlagRequired("model-file")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	kind, model, scaler, err := modelfile.Load(evaluateFlags.modelFile)
	if err != nil {
		return err
	}
	log.Debug().Str("kind", kind).Msg("model loaded")

	ds, err := evaluateFlags.loadMerged()
	if err != nil {
		return err
	}

	X := ds.X
	if scaler != nil {
		if X, err = scaler.Transform(X); err != nil {
			return err
		}
	}

	report, err := evaluation.Score(kind, model, X, ds.Y)
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}
