package pipeline_test

import (
	"context"
	"testing"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/pipeline"
	"github.com/stretchr/testify/require"
)

func neighborhoodDataset(values ...string) dataset.Dataset {
	samples := make([]dataset.Sample, 0, len(values))
	for _, v := range values {
		samples = append(samples, dataset.NewSample(map[string]interface{}{"neighborhood": v}))
	}
	return dataset.New(samples)
}

func TestStringIndexerFitAssignsCodesByFrequency(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs", "countryside"})
	si := pipeline.NewStringIndexer([]*feature.CategoricalFeature{neighborhood}, pipeline.SkipUnseen)
	require.False(t, si.Fitted())

	ds := neighborhoodDataset("suburbs", "downtown", "suburbs", "countryside", "suburbs", "downtown")
	err := si.Fit(context.Background(), ds)
	require.NoError(t, err)
	require.True(t, si.Fitted())
	require.Equal(t, 3, si.Cardinality("neighborhood"))
	require.Equal(t, []string{"suburbs", "downtown", "countryside"}, si.Mapping("neighborhood"))
}

func TestStringIndexerFitBreaksFrequencyTiesByValue(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs", "countryside"})
	si := pipeline.NewStringIndexer([]*feature.CategoricalFeature{neighborhood}, pipeline.SkipUnseen)

	ds := neighborhoodDataset("suburbs", "downtown", "countryside", "downtown", "suburbs", "countryside")
	err := si.Fit(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, []string{"countryside", "downtown", "suburbs"}, si.Mapping("neighborhood"))
}

func TestStringIndexerApply(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs", "countryside"})
	si := pipeline.NewStringIndexer([]*feature.CategoricalFeature{neighborhood}, pipeline.SkipUnseen)
	err := si.Fit(context.Background(), neighborhoodDataset("suburbs", "suburbs", "downtown"))
	require.NoError(t, err)

	indexed, dropped, err := si.Apply(context.Background(), neighborhoodDataset("downtown", "suburbs"))
	require.NoError(t, err)
	require.Equal(t, 0, dropped)

	samples, err := indexed.Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	v, err := samples[0].ValueFor(neighborhood)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)
	v, err = samples[1].ValueFor(neighborhood)
	require.NoError(t, err)
	require.Equal(t, 0.0, v)
}

func TestStringIndexerApplySkipsUnseenValues(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs", "countryside"})
	si := pipeline.NewStringIndexer([]*feature.CategoricalFeature{neighborhood}, pipeline.SkipUnseen)
	err := si.Fit(context.Background(), neighborhoodDataset("suburbs", "downtown"))
	require.NoError(t, err)

	indexed, dropped, err := si.Apply(context.Background(), neighborhoodDataset("countryside", "downtown", "countryside"))
	require.NoError(t, err)
	require.Equal(t, 2, dropped)
	count, err := indexed.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestStringIndexerApplyFailsOnUnseenValues(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs", "countryside"})
	si := pipeline.NewStringIndexer([]*feature.CategoricalFeature{neighborhood}, pipeline.FailUnseen)
	err := si.Fit(context.Background(), neighborhoodDataset("suburbs", "downtown"))
	require.NoError(t, err)

	_, _, err = si.Apply(context.Background(), neighborhoodDataset("downtown", "countryside"))
	require.Error(t, err)
}

func TestStringIndexerApplyToSampleWithUnseenValue(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs", "countryside"})
	si := pipeline.NewStringIndexer([]*feature.CategoricalFeature{neighborhood}, pipeline.SkipUnseen)
	err := si.Fit(context.Background(), neighborhoodDataset("suburbs", "downtown"))
	require.NoError(t, err)

	_, err = si.ApplyToSample(dataset.NewSample(map[string]interface{}{"neighborhood": "countryside"}))
	require.Equal(t, pipeline.ErrUnseenCategory, err)
	_, err = si.ApplyToSample(dataset.NewSample(map[string]interface{}{}))
	require.Equal(t, pipeline.ErrUnseenCategory, err)
}

func TestStringIndexerWithoutColumns(t *testing.T) {
	si := pipeline.NewStringIndexer(nil, pipeline.SkipUnseen)
	err := si.Fit(context.Background(), neighborhoodDataset("downtown"))
	require.NoError(t, err)
	require.True(t, si.Fitted())

	indexed, dropped, err := si.Apply(context.Background(), neighborhoodDataset("downtown", "countryside"))
	require.NoError(t, err)
	require.Equal(t, 0, dropped)
	count, err := indexed.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestStringIndexerApplyUnfitted(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown"})
	si := pipeline.NewStringIndexer([]*feature.CategoricalFeature{neighborhood}, pipeline.SkipUnseen)
	_, _, err := si.Apply(context.Background(), neighborhoodDataset("downtown"))
	require.Equal(t, pipeline.ErrNotFitted, err)
}

func TestRestoreStringIndexer(t *testing.T) {
	neighborhood := feature.NewCategoricalFeature("neighborhood", []string{"downtown", "suburbs", "countryside"})
	si := pipeline.RestoreStringIndexer([]*feature.CategoricalFeature{neighborhood}, pipeline.SkipUnseen, map[string][]string{
		"neighborhood": {"suburbs", "downtown"},
	})
	require.True(t, si.Fitted())
	require.Equal(t, []string{"suburbs", "downtown"}, si.Mapping("neighborhood"))

	is, err := si.ApplyToSample(dataset.NewSample(map[string]interface{}{"neighborhood": "downtown"}))
	require.NoError(t, err)
	v, err := is.ValueFor(neighborhood)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)
}

func TestParseUnseenPolicy(t *testing.T) {
	policy, err := pipeline.ParseUnseenPolicy("skip")
	require.NoError(t, err)
	require.Equal(t, pipeline.SkipUnseen, policy)
	policy, err = pipeline.ParseUnseenPolicy("error")
	require.NoError(t, err)
	require.Equal(t, pipeline.FailUnseen, policy)
	_, err = pipeline.ParseUnseenPolicy("ignore")
	require.Error(t, err)
}
