package yaml_test

import (
	"testing"

	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/feature/yaml"
	"github.com/stretchr/testify/require"
)

const housingMetadata = `
features:
  neighborhood:
    - downtown
    - suburbs
    - countryside
  bedrooms: continuous
  property_type:
    - house
    - apartment
  price: continuous
`

func TestReadFeatures(t *testing.T) {
	features, err := yaml.ReadFeatures([]byte(housingMetadata))
	require.NoError(t, err)
	require.Len(t, features, 4)

	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, f.Name())
	}
	require.Equal(t, []string{"neighborhood", "bedrooms", "property_type", "price"}, names)

	nf, ok := features[0].(*feature.CategoricalFeature)
	require.True(t, ok)
	require.Equal(t, []string{"downtown", "suburbs", "countryside"}, nf.Categories())
	_, ok = features[1].(*feature.ContinuousFeature)
	require.True(t, ok)
	_, ok = features[3].(*feature.ContinuousFeature)
	require.True(t, ok)
}

func TestReadFeaturesWithoutFeatureInformation(t *testing.T) {
	_, err := yaml.ReadFeatures([]byte("settings:\n  foo: bar\n"))
	require.Error(t, err)
}

func TestReadFeaturesWithInvalidDeclaration(t *testing.T) {
	_, err := yaml.ReadFeatures([]byte("features:\n  bedrooms: 3\n"))
	require.Error(t, err)
}
