package model_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/pbanos/grove/model"
	"github.com/stretchr/testify/require"
)

func housingMeta() model.FeatureMeta {
	return model.FeatureMeta{
		Names:                  []string{"neighborhood", "bedrooms", "sqft"},
		CategoricalCardinality: []int{3, 0, 0},
	}
}

/*
housingVectors generates a deterministic training set in which the
label grows with sqft and gets a premium for neighborhood code 0.
*/
func housingVectors(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(7))
	vectors := make([][]float64, 0, n)
	labels := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		neighborhood := float64(rng.Intn(3))
		bedrooms := float64(1 + rng.Intn(4))
		sqft := 500 + 2500*rng.Float64()
		price := 100*sqft + 40000*bedrooms
		if neighborhood == 0 {
			price += 150000
		}
		vectors = append(vectors, []float64{neighborhood, bedrooms, sqft})
		labels = append(labels, price)
	}
	return vectors, labels
}

func labelRange(labels []float64) (float64, float64) {
	minL, maxL := labels[0], labels[0]
	for _, l := range labels {
		if l < minL {
			minL = l
		}
		if l > maxL {
			maxL = l
		}
	}
	return minL, maxL
}

func TestDecisionTreeFitAndPredict(t *testing.T) {
	vectors, labels := housingVectors(200)
	tree := model.NewDecisionTreeRegressor(model.TreeConfig{MaxDepth: 6}, housingMeta())
	err := tree.Fit(context.Background(), vectors, labels)
	require.NoError(t, err)

	prediction, err := tree.Predict([]float64{0, 3, 2000})
	require.NoError(t, err)
	require.Greater(t, prediction, 0.0)
}

func TestDecisionTreePredictionsStayWithinTrainedLabelRange(t *testing.T) {
	vectors, labels := housingVectors(150)
	tree := model.NewDecisionTreeRegressor(model.TreeConfig{}, housingMeta())
	err := tree.Fit(context.Background(), vectors, labels)
	require.NoError(t, err)

	minL, maxL := labelRange(labels)
	// Vectors far outside the training distribution must still
	// predict within the trained label range.
	for _, vector := range [][]float64{
		{0, 1, 100000},
		{2, 4, 0},
		{1, 2, -500},
	} {
		prediction, err := tree.Predict(vector)
		require.NoError(t, err)
		require.GreaterOrEqual(t, prediction, minL)
		require.LessOrEqual(t, prediction, maxL)
	}
}

func TestDecisionTreeFitWithInsufficientMaxBins(t *testing.T) {
	vectors, labels := housingVectors(50)
	tree := model.NewDecisionTreeRegressor(model.TreeConfig{MaxBins: 2}, housingMeta())
	err := tree.Fit(context.Background(), vectors, labels)
	require.Error(t, err)
	var ce model.ConfigError
	require.ErrorAs(t, err, &ce)
	require.Contains(t, err.Error(), "neighborhood")
}

func TestDecisionTreeFitWithExactMaxBins(t *testing.T) {
	vectors, labels := housingVectors(50)
	tree := model.NewDecisionTreeRegressor(model.TreeConfig{MaxBins: 3}, housingMeta())
	err := tree.Fit(context.Background(), vectors, labels)
	require.NoError(t, err)
}

func TestDecisionTreeFitWithInconsistentShapes(t *testing.T) {
	tree := model.NewDecisionTreeRegressor(model.TreeConfig{}, housingMeta())
	err := tree.Fit(context.Background(), nil, nil)
	require.Error(t, err)

	err = tree.Fit(context.Background(), [][]float64{{0, 1, 500}}, []float64{100000, 200000})
	require.Error(t, err)

	err = tree.Fit(context.Background(), [][]float64{{0, 1}}, []float64{100000})
	require.Error(t, err)
}

func TestDecisionTreeFeatureImportances(t *testing.T) {
	vectors, labels := housingVectors(200)
	tree := model.NewDecisionTreeRegressor(model.TreeConfig{MaxDepth: 6}, housingMeta())
	require.Nil(t, tree.FeatureImportances())

	err := tree.Fit(context.Background(), vectors, labels)
	require.NoError(t, err)

	importances := tree.FeatureImportances()
	require.Len(t, importances, 3)
	var total float64
	for _, imp := range importances {
		require.GreaterOrEqual(t, imp, 0.0)
		total += imp
	}
	require.InDelta(t, 1.0, total, 1e-9)
	// sqft dominates the label, so it must dominate the scores.
	require.Greater(t, importances[2], importances[1])
}

func TestDecisionTreeIsReproducible(t *testing.T) {
	vectors, labels := housingVectors(120)
	tree1 := model.NewDecisionTreeRegressor(model.TreeConfig{MaxDepth: 4}, housingMeta())
	tree2 := model.NewDecisionTreeRegressor(model.TreeConfig{MaxDepth: 4}, housingMeta())
	require.NoError(t, tree1.Fit(context.Background(), vectors, labels))
	require.NoError(t, tree2.Fit(context.Background(), vectors, labels))

	for _, v := range vectors {
		p1, err := tree1.Predict(v)
		require.NoError(t, err)
		p2, err := tree2.Predict(v)
		require.NoError(t, err)
		require.Equal(t, p1, p2)
	}
}

func TestDecisionTreeJSONRoundTrip(t *testing.T) {
	vectors, labels := housingVectors(100)
	tree := model.NewDecisionTreeRegressor(model.TreeConfig{MaxDepth: 4}, housingMeta())
	require.NoError(t, tree.Fit(context.Background(), vectors, labels))

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	parsed := &model.DecisionTreeRegressor{}
	require.NoError(t, json.Unmarshal(data, parsed))
	require.Equal(t, tree.FeatureImportances(), parsed.FeatureImportances())

	for _, v := range vectors {
		expected, err := tree.Predict(v)
		require.NoError(t, err)
		actual, err := parsed.Predict(v)
		require.NoError(t, err)
		require.Equal(t, expected, actual)
	}
}

func TestDecisionTreePredictUnfitted(t *testing.T) {
	tree := model.NewDecisionTreeRegressor(model.TreeConfig{}, housingMeta())
	_, err := tree.Predict([]float64{0, 1, 500})
	require.Error(t, err)
}
