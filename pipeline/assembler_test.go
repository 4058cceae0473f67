package pipeline_test

import (
	"context"
	"testing"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/pipeline"
	"github.com/stretchr/testify/require"
)

func TestVectorAssemblerAssembleSample(t *testing.T) {
	bedrooms := feature.NewContinuousFeature("bedrooms")
	sqft := feature.NewContinuousFeature("sqft")
	va := pipeline.NewVectorAssembler([]feature.Feature{bedrooms, sqft})
	require.Equal(t, []string{"bedrooms", "sqft"}, va.InputNames())

	vector, err := va.AssembleSample(dataset.NewSample(map[string]interface{}{
		"bedrooms": 3.0,
		"sqft":     1500.0,
		"price":    250000.0,
	}))
	require.NoError(t, err)
	require.Equal(t, []float64{3, 1500}, vector)
}

func TestVectorAssemblerAssembleSampleWithMissingValue(t *testing.T) {
	bedrooms := feature.NewContinuousFeature("bedrooms")
	sqft := feature.NewContinuousFeature("sqft")
	va := pipeline.NewVectorAssembler([]feature.Feature{bedrooms, sqft})

	_, err := va.AssembleSample(dataset.NewSample(map[string]interface{}{"bedrooms": 3.0}))
	require.Equal(t, pipeline.ErrMissingValue, err)
}

func TestVectorAssemblerAssembleSampleWithUnindexedValue(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown"})
	va := pipeline.NewVectorAssembler([]feature.Feature{neighborhood})

	_, err := va.AssembleSample(dataset.NewSample(map[string]interface{}{"neighborhood": "downtown"}))
	require.Error(t, err)
	require.NotEqual(t, pipeline.ErrMissingValue, err)
}

func TestVectorAssemblerAssemble(t *testing.T) {
	bedrooms := feature.NewContinuousFeature("bedrooms")
	price := feature.NewContinuousFeature("price")
	va := pipeline.NewVectorAssembler([]feature.Feature{bedrooms})

	ds := dataset.New([]dataset.Sample{
		dataset.NewSample(map[string]interface{}{"bedrooms": 2.0, "price": 180000.0}),
		dataset.NewSample(map[string]interface{}{"bedrooms": 4.0, "price": 320000.0}),
	})
	vectors, labels, err := va.Assemble(context.Background(), ds, price)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{2}, {4}}, vectors)
	require.Equal(t, []float64{180000, 320000}, labels)
}

func TestVectorAssemblerAssembleWithUndefinedLabel(t *testing.T) {
	bedrooms := feature.NewContinuousFeature("bedrooms")
	price := feature.NewContinuousFeature("price")
	va := pipeline.NewVectorAssembler([]feature.Feature{bedrooms})

	ds := dataset.New([]dataset.Sample{
		dataset.NewSample(map[string]interface{}{"bedrooms": 2.0}),
	})
	_, _, err := va.Assemble(context.Background(), ds, price)
	require.Error(t, err)
}
