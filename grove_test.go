package grove_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pbanos/grove"
	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/eval"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/model"
	"github.com/pbanos/grove/pipeline"
	"github.com/pbanos/grove/tuning"
	"github.com/stretchr/testify/require"
)

func housingSchema() []feature.Feature {
	return []feature.Feature{
		feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs", "countryside"}),
		feature.NewContinuousFeature("bedrooms"),
		feature.NewContinuousFeature("sqft"),
		feature.NewContinuousFeature("price"),
	}
}

func housingSample(neighborhood string, bedrooms, sqft, price float64) dataset.Sample {
	return dataset.NewSample(map[string]interface{}{
		"neighborhood": neighborhood,
		"bedrooms":     bedrooms,
		"sqft":         sqft,
		"price":        price,
	})
}

/*
housingDataset generates a deterministic dataset over the downtown and
suburbs neighborhoods, leaving countryside unseen so that applying the
pipeline to countryside samples exercises the unseen-category policy.
*/
func housingDataset(n int) dataset.Dataset {
	rng := rand.New(rand.NewSource(17))
	neighborhoods := []string{"downtown", "suburbs"}
	samples := make([]dataset.Sample, 0, n)
	for i := 0; i < n; i++ {
		neighborhood := neighborhoods[rng.Intn(2)]
		bedrooms := float64(1 + rng.Intn(4))
		sqft := 500 + 2500*rng.Float64()
		price := 100*sqft + 40000*bedrooms
		if neighborhood == "downtown" {
			price += 150000
		}
		samples = append(samples, housingSample(neighborhood, bedrooms, sqft, price))
	}
	return dataset.New(samples)
}

func treeBuilder(meta model.FeatureMeta) (model.Estimator, error) {
	return model.NewDecisionTreeRegressor(model.TreeConfig{MaxDepth: 6}, meta), nil
}

func TestTrainAndPredict(t *testing.T) {
	ctx := context.Background()
	pm, err := grove.Train(ctx, housingDataset(200), housingSchema(), "price", treeBuilder, pipeline.SkipUnseen)
	require.NoError(t, err)
	require.Equal(t, "price", pm.Label.Name())
	require.True(t, pm.Indexer.Fitted())

	prediction, err := pm.Predict(ctx, housingSample("downtown", 3, 2000, 0))
	require.NoError(t, err)
	require.Greater(t, prediction, 0.0)
}

func TestPredictWithUnseenCategory(t *testing.T) {
	ctx := context.Background()
	pm, err := grove.Train(ctx, housingDataset(100), housingSchema(), "price", treeBuilder, pipeline.SkipUnseen)
	require.NoError(t, err)

	_, err = pm.Predict(ctx, housingSample("countryside", 3, 2000, 0))
	require.Equal(t, pipeline.ErrUnseenCategory, err)
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	train, test, err := dataset.Split(ctx, housingDataset(300), 0.8, 1)
	require.NoError(t, err)

	pm, err := grove.Train(ctx, train, housingSchema(), "price", treeBuilder, pipeline.SkipUnseen)
	require.NoError(t, err)

	report, err := pm.Evaluate(ctx, test)
	require.NoError(t, err)
	require.Equal(t, 60, report.Count)
	require.Equal(t, 0, report.Skipped)
	require.Greater(t, report.RMSE, 0.0)
	require.Greater(t, report.R2, 0.5)
	require.LessOrEqual(t, report.R2, 1.0)
}

func TestEvaluateSkipsUnseenCategories(t *testing.T) {
	ctx := context.Background()
	pm, err := grove.Train(ctx, housingDataset(100), housingSchema(), "price", treeBuilder, pipeline.SkipUnseen)
	require.NoError(t, err)

	test := dataset.New([]dataset.Sample{
		housingSample("downtown", 3, 2000, 500000),
		housingSample("countryside", 2, 1200, 150000),
		housingSample("suburbs", 2, 1500, 230000),
		housingSample("countryside", 4, 2800, 310000),
	})
	report, err := pm.Evaluate(ctx, test)
	require.NoError(t, err)
	require.Equal(t, 2, report.Count)
	require.Equal(t, 2, report.Skipped)
}

func TestEvaluateFailsOnUnseenCategories(t *testing.T) {
	ctx := context.Background()
	pm, err := grove.Train(ctx, housingDataset(100), housingSchema(), "price", treeBuilder, pipeline.FailUnseen)
	require.NoError(t, err)

	test := dataset.New([]dataset.Sample{
		housingSample("countryside", 2, 1200, 150000),
	})
	_, err = pm.Evaluate(ctx, test)
	require.Error(t, err)
}

func TestEvaluateWithAllSamplesSkipped(t *testing.T) {
	ctx := context.Background()
	pm, err := grove.Train(ctx, housingDataset(100), housingSchema(), "price", treeBuilder, pipeline.SkipUnseen)
	require.NoError(t, err)

	test := dataset.New([]dataset.Sample{
		housingSample("countryside", 2, 1200, 150000),
	})
	_, err = pm.Evaluate(ctx, test)
	require.Equal(t, eval.ErrEmptyEvaluationSet, err)
}

func TestFeatureImportances(t *testing.T) {
	ctx := context.Background()
	pm, err := grove.Train(ctx, housingDataset(200), housingSchema(), "price", treeBuilder, pipeline.SkipUnseen)
	require.NoError(t, err)

	importances := pm.FeatureImportances()
	require.Len(t, importances, 3)
	names := map[string]bool{}
	for i, imp := range importances {
		require.GreaterOrEqual(t, imp.Score, 0.0)
		names[imp.Feature] = true
		if i > 0 {
			require.LessOrEqual(t, imp.Score, importances[i-1].Score)
		}
	}
	require.Equal(t, map[string]bool{"neighborhood": true, "bedrooms": true, "sqft": true}, names)
}

func TestTrainWithSearch(t *testing.T) {
	ctx := context.Background()
	grid, err := tuning.NewParamGridBuilder().Add("max-depth", 2, 4, 6).Build()
	require.NoError(t, err)

	build := func(params tuning.ParamMap, meta model.FeatureMeta) (model.Estimator, error) {
		config := model.TreeConfig{MaxDepth: int(params["max-depth"])}
		return model.NewDecisionTreeRegressor(config, meta), nil
	}
	pm, result, err := grove.TrainWithSearch(ctx, housingDataset(150), housingSchema(), "price", build, pipeline.SkipUnseen, grove.SearchConfig{
		Grid:        grid,
		Metric:      eval.RMSEMetric{},
		NumFolds:    3,
		Parallelism: 4,
		Seed:        42,
	})
	require.NoError(t, err)
	require.Len(t, result.AvgScores, 3)
	require.Same(t, result.Best, pm.Estimator)

	prediction, err := pm.Predict(ctx, housingSample("suburbs", 3, 1800, 0))
	require.NoError(t, err)
	require.Greater(t, prediction, 0.0)
}

func TestTrainWithUndefinedLabel(t *testing.T) {
	ctx := context.Background()
	_, err := grove.Train(ctx, housingDataset(10), housingSchema(), "tax", treeBuilder, pipeline.SkipUnseen)
	require.Error(t, err)
}
