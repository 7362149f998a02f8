package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/model"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/pipeline"
)

func newTrainCmd(a *app) *cobra.Command {
	var (
		dataset     string
		maxDepth    int
		minSplit    int
		minLeaf     int
		maxFeatures int
		minDecrease float64
		criterion   string
		seed        int64
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train on the dataset and save a new model bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dataset == "" {
				dataset = a.cfg.Dataset.Path
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			rep, err := pipeline.Run(ctx, dataset, st,
				pipeline.WithMetrics(a.metrics),
				pipeline.WithTreeOptions(
					model.WithMaxDepth(maxDepth),
					model.WithMinSamplesSplit(minSplit),
					model.WithMinSamplesLeaf(minLeaf),
					model.WithMaxFeatures(maxFeatures),
					model.WithMinImpurityDecrease(minDecrease),
					model.WithCriterion(criterion),
					model.WithRandomState(seed),
				),
			)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bundle:   %s\n", rep.BundleID)
			fmt.Fprintf(out, "rows:     %d\n", rep.Rows)
			fmt.Fprintf(out, "classes:  %s\n", strings.Join(rep.Classes, ", "))
			fmt.Fprintf(out, "accuracy: %.4f (training set)\n", rep.TrainingAccuracy)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset CSV (default dataset.path)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum tree depth, 0 for unlimited")
	cmd.Flags().IntVar(&minSplit, "min-samples-split", 2, "minimum rows to split a node")
	cmd.Flags().IntVar(&minLeaf, "min-samples-leaf", 1, "minimum rows in each leaf")
	cmd.Flags().IntVar(&maxFeatures, "max-features", 0, "features sampled per split, 0 for all")
	cmd.Flags().Float64Var(&minDecrease, "min-impurity-decrease", 0, "minimum impurity decrease to accept a split")
	cmd.Flags().StringVar(&criterion, "criterion", "gini", "split criterion: gini or entropy")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for feature sampling")
	return cmd
}
