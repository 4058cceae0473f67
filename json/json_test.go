package json_test

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/pbanos/grove"
	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/json"
	"github.com/pbanos/grove/model"
	"github.com/pbanos/grove/pipeline"
	"github.com/stretchr/testify/require"
)

func housingSchema() []feature.Feature {
	return []feature.Feature{
		feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs"}),
		feature.NewContinuousFeature("sqft"),
		feature.NewContinuousFeature("price"),
	}
}

func housingDataset(n int) dataset.Dataset {
	rng := rand.New(rand.NewSource(23))
	neighborhoods := []string{"downtown", "suburbs"}
	samples := make([]dataset.Sample, 0, n)
	for i := 0; i < n; i++ {
		neighborhood := neighborhoods[rng.Intn(2)]
		sqft := 500 + 2500*rng.Float64()
		price := 100 * sqft
		if neighborhood == "downtown" {
			price += 150000
		}
		samples = append(samples, dataset.NewSample(map[string]interface{}{
			"neighborhood": neighborhood,
			"sqft":         sqft,
			"price":        price,
		}))
	}
	return dataset.New(samples)
}

func trainPipeline(t *testing.T, build grove.EstimatorBuilder) *grove.PipelineModel {
	pm, err := grove.Train(context.Background(), housingDataset(100), housingSchema(), "price", build, pipeline.SkipUnseen)
	require.NoError(t, err)
	return pm
}

func requireSamePredictions(t *testing.T, expected, actual *grove.PipelineModel) {
	ctx := context.Background()
	samples, err := housingDataset(20).Samples(ctx)
	require.NoError(t, err)
	for _, s := range samples {
		expectedPrediction, err := expected.Predict(ctx, s)
		require.NoError(t, err)
		actualPrediction, err := actual.Predict(ctx, s)
		require.NoError(t, err)
		require.Equal(t, expectedPrediction, actualPrediction)
	}
}

func TestWriteAndReadPipelineModelWithTree(t *testing.T) {
	pm := trainPipeline(t, func(meta model.FeatureMeta) (model.Estimator, error) {
		return model.NewDecisionTreeRegressor(model.TreeConfig{MaxDepth: 4}, meta), nil
	})

	var buf bytes.Buffer
	err := json.WritePipelineModel(context.Background(), pm, &buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"kind":"tree"`)

	parsed, err := json.ReadPipelineModel(context.Background(), housingSchema(), &buf)
	require.NoError(t, err)
	require.Equal(t, pm.Label.Name(), parsed.Label.Name())
	require.Equal(t, pm.Indexer.Mapping("neighborhood"), parsed.Indexer.Mapping("neighborhood"))
	require.Equal(t, pipeline.SkipUnseen, parsed.Indexer.Policy())
	requireSamePredictions(t, pm, parsed)
}

func TestWriteAndReadPipelineModelWithForest(t *testing.T) {
	pm := trainPipeline(t, func(meta model.FeatureMeta) (model.Estimator, error) {
		return model.NewRandomForestRegressor(model.ForestConfig{NumTrees: 5, Seed: 42}, meta), nil
	})

	var buf bytes.Buffer
	err := json.WritePipelineModel(context.Background(), pm, &buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"kind":"forest"`)

	parsed, err := json.ReadPipelineModel(context.Background(), housingSchema(), &buf)
	require.NoError(t, err)
	requireSamePredictions(t, pm, parsed)
}

func TestReadPipelineModelWithUnknownEstimatorKind(t *testing.T) {
	doc := `{"label":"price","policy":"skip","indexer":{},"estimator":{"kind":"linear","model":{}}}`
	_, err := json.ReadPipelineModel(context.Background(), housingSchema(), strings.NewReader(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "linear")
}

func TestReadPipelineModelWithInvalidPolicy(t *testing.T) {
	doc := `{"label":"price","policy":"ignore","indexer":{},"estimator":{"kind":"tree","model":{}}}`
	_, err := json.ReadPipelineModel(context.Background(), housingSchema(), strings.NewReader(doc))
	require.Error(t, err)
}

func TestReadPipelineModelWithInvalidJSON(t *testing.T) {
	_, err := json.ReadPipelineModel(context.Background(), housingSchema(), strings.NewReader("not json"))
	require.Error(t, err)
}
