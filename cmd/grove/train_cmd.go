package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pbanos/grove"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/feature/yaml"
	"github.com/pbanos/grove/model"
	"github.com/pbanos/grove/pipeline"
	"github.com/spf13/cobra"
)

type trainCmdConfig struct {
	*rootCmdConfig
	dataInput           string
	metadataInput       string
	modelOutput         string
	labelFeature        string
	estimator           string
	policy              string
	maxDepth            int
	maxBins             int
	minSamplesLeaf      int
	minVarianceDecrease float64
	numTrees            int
	featureFraction     float64
	seed                int64
	maxDBConns          int
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a regression model from a dataset",
		Long:  `Train a decision-tree or random-forest regression model from a dataset to predict a certain feature.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			features, policy, err := config.featuresAndPolicy()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			ds, err := openDataset(ctx, config.rootCmdConfig, config.dataInput, features, config.maxDBConns)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			count, err := ds.Count(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "counting training dataset samples: %v\n", err)
				os.Exit(4)
			}
			config.Logf("Training %s model from a dataset with %d samples and %d features to predict %s ...", config.estimator, count, len(features)-1, config.labelFeature)
			pm, err := grove.Train(ctx, ds, features, config.labelFeature, config.estimatorBuilder(), policy)
			if err != nil {
				fmt.Fprintf(os.Stderr, "training the model: %v\n", err)
				os.Exit(5)
			}
			config.Logf("Done")
			logImportances(config.rootCmdConfig, pm)
			err = saveModel(ctx, config.rootCmdConfig, config.modelOutput, pm)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to use to train the model (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input dataset (required)")
	cmd.PersistentFlags().StringVarP(&(config.modelOutput), "output", "o", "", "path to a file or redis://host:port/db/name URL to which the trained model will be written in JSON format (defaults to STDOUT)")
	cmd.PersistentFlags().StringVarP(&(config.labelFeature), "label", "l", "", "name of the continuous feature the trained model should predict (required)")
	cmd.PersistentFlags().StringVarP(&(config.estimator), "estimator", "e", "tree", "kind of model to train, the following are valid: tree, forest")
	cmd.PersistentFlags().StringVarP(&(config.policy), "unseen-policy", "u", "skip", "policy for category values unseen while training, the following are valid: skip, error")
	cmd.PersistentFlags().IntVar(&(config.maxDepth), "max-depth", model.DefaultMaxDepth, "bound on the depth of the trained trees")
	cmd.PersistentFlags().IntVar(&(config.maxBins), "max-bins", model.DefaultMaxBins, "bound on the candidate split thresholds evaluated per feature; it must be at least the number of categories of the most granular categorical feature")
	cmd.PersistentFlags().IntVar(&(config.minSamplesLeaf), "min-samples-leaf", 1, "minimum number of training samples each side of a split must keep")
	cmd.PersistentFlags().Float64Var(&(config.minVarianceDecrease), "min-variance-decrease", 0, "minimum decrease in squared error a split must achieve to be taken")
	cmd.PersistentFlags().IntVar(&(config.numTrees), "num-trees", model.DefaultNumTrees, "number of trees to grow when training a forest")
	cmd.PersistentFlags().Float64Var(&(config.featureFraction), "feature-fraction", model.DefaultFeatureSubsetFraction, "fraction of the features each forest tree considers at every split")
	cmd.PersistentFlags().Int64Var(&(config.seed), "seed", 0, "seed determining the resampling and feature subsampling when training a forest")
	cmd.PersistentFlags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	return cmd
}

func (tcc *trainCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if tcc.labelFeature == "" {
		return fmt.Errorf("required label flag was not set")
	}
	if tcc.estimator != "tree" && tcc.estimator != "forest" {
		return fmt.Errorf("estimator flag was set to an invalid value: it must be set to tree or forest")
	}
	return nil
}

func (tcc *trainCmdConfig) treeConfig() model.TreeConfig {
	return model.TreeConfig{
		MaxDepth:            tcc.maxDepth,
		MaxBins:             tcc.maxBins,
		MinSamplesLeaf:      tcc.minSamplesLeaf,
		MinVarianceDecrease: tcc.minVarianceDecrease,
	}
}

func (tcc *trainCmdConfig) forestConfig() model.ForestConfig {
	return model.ForestConfig{
		TreeConfig:            tcc.treeConfig(),
		NumTrees:              tcc.numTrees,
		FeatureSubsetFraction: tcc.featureFraction,
		Seed:                  tcc.seed,
	}
}

func (tcc *trainCmdConfig) estimatorBuilder() grove.EstimatorBuilder {
	if tcc.estimator == "forest" {
		return func(meta model.FeatureMeta) (model.Estimator, error) {
			return model.NewRandomForestRegressor(tcc.forestConfig(), meta), nil
		}
	}
	return func(meta model.FeatureMeta) (model.Estimator, error) {
		return model.NewDecisionTreeRegressor(tcc.treeConfig(), meta), nil
	}
}

func (tcc *trainCmdConfig) featuresAndPolicy() ([]feature.Feature, pipeline.UnseenPolicy, error) {
	tcc.Logf("Reading features from metadata at %s...", tcc.metadataInput)
	features, err := yaml.ReadFeaturesFromFile(tcc.metadataInput)
	if err != nil {
		return nil, "", err
	}
	policy, err := pipeline.ParseUnseenPolicy(tcc.policy)
	if err != nil {
		return nil, "", err
	}
	return features, policy, nil
}

func logImportances(rcc *rootCmdConfig, pm *grove.PipelineModel) {
	for _, imp := range pm.FeatureImportances() {
		rcc.Logf("feature importance: %s %g", imp.Feature, imp.Score)
	}
}
