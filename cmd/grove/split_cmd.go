package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature/yaml"
	"github.com/spf13/cobra"
)

type splitCmdConfig struct {
	*rootCmdConfig
	dataInput     string
	metadataInput string
	trainOutput   string
	testOutput    string
	trainFraction float64
	seed          int64
	maxDBConns    int
}

func splitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &splitCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a dataset into a train and a test dataset",
		Long:  `Split a dataset at random into a train and a test dataset, reproducibly for a given seed`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			config.Logf("Reading features from metadata at %s...", config.metadataInput)
			features, err := yaml.ReadFeaturesFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			ds, err := openDataset(ctx, config.rootCmdConfig, config.dataInput, features, config.maxDBConns)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			config.Logf("Splitting dataset with train fraction %g and seed %d...", config.trainFraction, config.seed)
			train, test, err := dataset.Split(ctx, ds, config.trainFraction, config.seed)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			err = writeCSVDataset(ctx, config.rootCmdConfig, config.trainOutput, train, features)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			err = writeCSVDataset(ctx, config.rootCmdConfig, config.testOutput, test, features)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			trainCount, err := train.Count(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			testCount, err := test.Count(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(8)
			}
			config.Logf("Done")
			config.Logf("Dataset with %d samples was split into datasets with %d and %d samples", trainCount+testCount, trainCount, testCount)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the dataset to split (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input dataset (required)")
	cmd.PersistentFlags().StringVarP(&(config.trainOutput), "output", "o", "", "path to a file to dump the train dataset as CSV (defaults to STDOUT)")
	cmd.PersistentFlags().StringVarP(&(config.testOutput), "test-output", "t", "", "path to a file to dump the test dataset as CSV (required)")
	cmd.PersistentFlags().Float64VarP(&(config.trainFraction), "train-fraction", "f", 0.8, "fraction of the samples to assign to the train dataset, exclusively between 0 and 1")
	cmd.PersistentFlags().Int64Var(&(config.seed), "seed", 0, "seed determining the random assignment of samples to the train and test datasets")
	cmd.PersistentFlags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	if scc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if scc.testOutput == "" {
		return fmt.Errorf("required test-output flag was not set")
	}
	if scc.trainFraction <= 0 || scc.trainFraction >= 1 {
		return fmt.Errorf("train-fraction flag was set to an invalid value: it must be exclusively between 0 and 1")
	}
	return nil
}
