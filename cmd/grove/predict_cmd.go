package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/dataset/csv"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/feature/yaml"
	"github.com/pbanos/grove/pipeline"
	"github.com/spf13/cobra"
)

type predictCmdConfig struct {
	*rootCmdConfig
	modelInput    string
	dataInput     string
	metadataInput string
	output        string
	maxDBConns    int
}

/*
predictedSample decorates a sample with the value a model predicted
for its label feature.
*/
type predictedSample struct {
	dataset.Sample
	label      string
	prediction float64
}

func (ps *predictedSample) ValueFor(f feature.Feature) (interface{}, error) {
	if f.Name() == ps.label {
		return ps.prediction, nil
	}
	return ps.Sample.ValueFor(f)
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the label of every sample of a dataset",
		Long:  `Use a trained model to predict the label feature value of every sample of a dataset, and dump the dataset with the predicted values as CSV`,
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
			pm, err := loadModel(ctx, config.rootCmdConfig, config.modelInput, features)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			ds, err := openDataset(ctx, config.rootCmdConfig, config.dataInput, features, config.maxDBConns)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			samples, err := ds.Samples(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			var f *os.File
			if config.output == "" {
				config.Logf("Using STDOUT to dump predictions...")
				f = os.Stdout
			} else {
				config.Logf("Creating %s to dump predictions...", config.output)
				f, err = os.Create(config.output)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(6)
				}
				defer f.Close()
			}
			output, err := csv.NewWriter(f, features)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			config.Logf("Predicting %s for %d samples...", pm.Label.Name(), len(samples))
			var skipped int
			for _, s := range samples {
				prediction, err := pm.Predict(ctx, s)
				if err == pipeline.ErrUnseenCategory && pm.Indexer.Policy() == pipeline.SkipUnseen {
					skipped++
					continue
				}
				if err != nil {
					fmt.Fprintf(os.Stderr, "predicting: %v\n", err)
					os.Exit(8)
				}
				_, err = output.Write(ctx, []dataset.Sample{&predictedSample{Sample: s, label: pm.Label.Name(), prediction: prediction}})
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(9)
				}
			}
			err = output.Flush()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(10)
			}
			config.Logf("Done")
			config.Logf("Predicted %s for %d samples (%d skipped for unseen categories)", pm.Label.Name(), output.Count(), skipped)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "t", "", "path to a file or redis://host:port/db/name URL from which the model to predict with will be read and parsed as JSON (required)")
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the samples to predict for (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input dataset (required)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to dump the dataset with the predicted values as CSV (defaults to STDOUT)")
	cmd.PersistentFlags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if pcc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	return nil
}
