package tuning_test

import (
	"testing"

	"github.com/pbanos/grove/tuning"
	"github.com/stretchr/testify/require"
)

func TestParamGridBuilderBuild(t *testing.T) {
	grid, err := tuning.NewParamGridBuilder().
		Add("max-depth", 2, 4, 6).
		Add("num-trees", 10, 100).
		Build()
	require.NoError(t, err)
	require.Equal(t, []tuning.ParamMap{
		{"max-depth": 2, "num-trees": 10},
		{"max-depth": 2, "num-trees": 100},
		{"max-depth": 4, "num-trees": 10},
		{"max-depth": 4, "num-trees": 100},
		{"max-depth": 6, "num-trees": 10},
		{"max-depth": 6, "num-trees": 100},
	}, grid)
}

func TestParamGridBuilderBuildWithSingleParam(t *testing.T) {
	grid, err := tuning.NewParamGridBuilder().Add("max-depth", 2, 4).Build()
	require.NoError(t, err)
	require.Equal(t, []tuning.ParamMap{
		{"max-depth": 2},
		{"max-depth": 4},
	}, grid)
}

func TestParamGridBuilderBuildEmpty(t *testing.T) {
	_, err := tuning.NewParamGridBuilder().Build()
	require.Equal(t, tuning.ErrEmptyGrid, err)

	_, err = tuning.NewParamGridBuilder().Add("max-depth").Build()
	require.Equal(t, tuning.ErrEmptyGrid, err)
}

func TestParamMapParamNames(t *testing.T) {
	pm := tuning.ParamMap{"num-trees": 10, "max-depth": 4}
	require.Equal(t, []string{"max-depth", "num-trees"}, pm.ParamNames())
}
