package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pbanos/grove/feature/yaml"
	"github.com/spf13/cobra"
)

type testCmdConfig struct {
	*rootCmdConfig
	modelInput    string
	dataInput     string
	metadataInput string
	maxDBConns    int
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a model",
		Long:  `Test the performance of a trained model against a labeled test dataset`,
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
			count, err := ds.Count(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "counting test dataset samples: %v\n", err)
				os.Exit(5)
			}
			config.Logf("Testing model against dataset with %d samples...", count)
			report, err := pm.Evaluate(ctx, ds)
			if err != nil {
				fmt.Fprintf(os.Stderr, "testing the model: %v\n", err)
				os.Exit(6)
			}
			config.Logf("Done")
			fmt.Printf("Tested model on %d samples (%d skipped for unseen categories):\nRMSE: %g\nR2: %g\n", report.Count, report.Skipped, report.RMSE, report.R2)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "t", "", "path to a file or redis://host:port/db/name URL from which the model to test will be read and parsed as JSON (required)")
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the labeled dataset to test against (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input dataset (required)")
	cmd.PersistentFlags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	return cmd
}

func (tcc *testCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if tcc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	return nil
}
