package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pbanos/grove"
	"github.com/pbanos/grove/eval"
	"github.com/pbanos/grove/feature/yaml"
	"github.com/pbanos/grove/model"
	"github.com/pbanos/grove/pipeline"
	"github.com/pbanos/grove/tuning"
	"github.com/spf13/cobra"
)

const tuneEnvPrefix = "GROVE_"

/*
tuneSettings are the settings of a cross-validated grid search, read
from a YAML config file and overridable with GROVE_-prefixed
environment variables.
*/
type tuneSettings struct {
	Estimator   string               `koanf:"estimator"`
	Metric      string               `koanf:"metric"`
	Folds       int                  `koanf:"folds"`
	Parallelism int                  `koanf:"parallelism"`
	Seed        int64                `koanf:"seed"`
	Policy      string               `koanf:"policy"`
	Grid        map[string][]float64 `koanf:"grid"`
}

type tuneCmdConfig struct {
	*rootCmdConfig
	dataInput     string
	metadataInput string
	modelOutput   string
	labelFeature  string
	configInput   string
	maxDBConns    int
}

func tuneCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &tuneCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Select the best hyperparameters for a model by cross validation",
		Long:  `Evaluate a grid of candidate hyperparameter values by k-fold cross validation over a dataset, train a model on the whole dataset with the best values found and save it.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			settings, err := config.settings()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			config.Logf("Reading features from metadata at %s...", config.metadataInput)
			features, err := yaml.ReadFeaturesFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			policy, err := pipeline.ParseUnseenPolicy(settings.Policy)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			metric, err := eval.MetricByName(settings.Metric)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			grid, err := settings.grid()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			ds, err := openDataset(ctx, config.rootCmdConfig, config.dataInput, features, config.maxDBConns)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			config.Logf("Searching %d grid points with %d-fold cross validation on metric %s...", len(grid), settings.Folds, metric.Name())
			pm, result, err := grove.TrainWithSearch(ctx, ds, features, config.labelFeature, settings.builder(), policy, grove.SearchConfig{
				Grid:        grid,
				Metric:      metric,
				NumFolds:    settings.Folds,
				Parallelism: settings.Parallelism,
				Seed:        settings.Seed,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "tuning the model: %v\n", err)
				os.Exit(8)
			}
			config.Logf("Done")
			for i, score := range result.AvgScores {
				config.Logf("grid point %v: avg %s %g", grid[i], metric.Name(), score)
			}
			config.Logf("Best grid point %v with avg %s %g", result.BestParams, metric.Name(), result.BestScore)
			logImportances(config.rootCmdConfig, pm)
			err = saveModel(ctx, config.rootCmdConfig, config.modelOutput, pm)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(9)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to use to tune the model (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input dataset (required)")
	cmd.PersistentFlags().StringVarP(&(config.modelOutput), "output", "o", "", "path to a file or redis://host:port/db/name URL to which the tuned model will be written in JSON format (defaults to STDOUT)")
	cmd.PersistentFlags().StringVarP(&(config.labelFeature), "label", "l", "", "name of the continuous feature the tuned model should predict (required)")
	cmd.PersistentFlags().StringVarP(&(config.configInput), "config", "c", "", "path to a YAML file with the grid-search settings: estimator, metric, folds, parallelism, seed, policy and grid (required)")
	cmd.PersistentFlags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	return cmd
}

func (tcc *tuneCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if tcc.labelFeature == "" {
		return fmt.Errorf("required label flag was not set")
	}
	if tcc.configInput == "" {
		return fmt.Errorf("required config flag was not set")
	}
	return nil
}

func (tcc *tuneCmdConfig) settings() (*tuneSettings, error) {
	tcc.Logf("Reading grid-search settings from %s...", tcc.configInput)
	k := koanf.New(".")
	err := k.Load(file.Provider(tcc.configInput), koanfyaml.Parser())
	if err != nil {
		return nil, fmt.Errorf("reading grid-search settings from %s: %v", tcc.configInput, err)
	}
	err = k.Load(env.Provider(tuneEnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, tuneEnvPrefix)), "_", ".", -1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("reading grid-search settings from environment: %v", err)
	}
	settings := &tuneSettings{
		Estimator:   "tree",
		Metric:      "rmse",
		Folds:       3,
		Parallelism: 1,
		Policy:      "skip",
	}
	err = k.Unmarshal("", settings)
	if err != nil {
		return nil, fmt.Errorf("parsing grid-search settings: %v", err)
	}
	if settings.Estimator != "tree" && settings.Estimator != "forest" {
		return nil, fmt.Errorf("grid-search settings declare an invalid estimator %q: it must be tree or forest", settings.Estimator)
	}
	return settings, nil
}

/*
grid builds the list of candidate grid points from the settings' grid
section. Hyperparameter names are added in alphabetical order, so that
a given config file always produces the same grid.
*/
func (ts *tuneSettings) grid() ([]tuning.ParamMap, error) {
	names := make([]string, 0, len(ts.Grid))
	for name := range ts.Grid {
		names = append(names, name)
	}
	sort.Strings(names)
	b := tuning.NewParamGridBuilder()
	for _, name := range names {
		if err := ts.validParam(name); err != nil {
			return nil, err
		}
		b.Add(name, ts.Grid[name]...)
	}
	return b.Build()
}

func (ts *tuneSettings) validParam(name string) error {
	switch name {
	case "max-depth", "max-bins", "min-samples-leaf", "min-variance-decrease":
		return nil
	case "num-trees", "feature-fraction":
		if ts.Estimator != "forest" {
			return fmt.Errorf("grid-search settings declare hyperparameter %q, which only applies to forest estimators", name)
		}
		return nil
	}
	return fmt.Errorf("grid-search settings declare an unknown hyperparameter %q", name)
}

func (ts *tuneSettings) builder() grove.SearchEstimatorBuilder {
	return func(params tuning.ParamMap, meta model.FeatureMeta) (model.Estimator, error) {
		tc := model.TreeConfig{}
		fc := model.ForestConfig{Seed: ts.Seed}
		for name, value := range params {
			switch name {
			case "max-depth":
				tc.MaxDepth = int(value)
			case "max-bins":
				tc.MaxBins = int(value)
			case "min-samples-leaf":
				tc.MinSamplesLeaf = int(value)
			case "min-variance-decrease":
				tc.MinVarianceDecrease = value
			case "num-trees":
				fc.NumTrees = int(value)
			case "feature-fraction":
				fc.FeatureSubsetFraction = value
			default:
				return nil, fmt.Errorf("unknown hyperparameter %q", name)
			}
		}
		if ts.Estimator == "forest" {
			fc.TreeConfig = tc
			return model.NewRandomForestRegressor(fc, meta), nil
		}
		return model.NewDecisionTreeRegressor(tc, meta), nil
	}
}
