package feature_test

import (
	"testing"

	"github.com/pbanos/grove/feature"
	"github.com/stretchr/testify/require"
)

func housingSchema() []feature.Feature {
	return []feature.Feature{
		feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs"}),
		feature.NewContinuousFeature("bedrooms"),
		feature.NewCategoricalFeature("property_type", []string{"house", "apartment"}),
		feature.NewContinuousFeature("sqft"),
		feature.NewContinuousFeature("price"),
	}
}

func TestSplitColumns(t *testing.T) {
	cols, err := feature.SplitColumns(housingSchema(), "price")
	require.NoError(t, err)
	require.Equal(t, "price", cols.Label.Name())
	require.Equal(t, []string{"neighborhood", "property_type"}, cols.CategoricalNames())
	require.Len(t, cols.Continuous, 2)
	require.Equal(t, "bedrooms", cols.Continuous[0].Name())
	require.Equal(t, "sqft", cols.Continuous[1].Name())
}

func TestSplitColumnsInputNames(t *testing.T) {
	cols, err := feature.SplitColumns(housingSchema(), "price")
	require.NoError(t, err)
	require.Equal(t, []string{"neighborhood", "property_type", "bedrooms", "sqft"}, cols.InputNames())
}

func TestSplitColumnsUndefinedLabel(t *testing.T) {
	_, err := feature.SplitColumns(housingSchema(), "tax")
	require.Error(t, err)
	require.Contains(t, err.Error(), "tax")
}

func TestSplitColumnsCategoricalLabel(t *testing.T) {
	_, err := feature.SplitColumns(housingSchema(), "neighborhood")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be continuous")
}
