package eval_test

import (
	"math"
	"testing"

	"github.com/pbanos/grove/eval"
	"github.com/stretchr/testify/require"
)

func TestRMSE(t *testing.T) {
	rmse, err := eval.RMSE([]float64{12, 18, 33}, []float64{10, 20, 30})
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt(17.0/3.0), rmse, 1e-9)
}

func TestRMSEWithPerfectPredictions(t *testing.T) {
	rmse, err := eval.RMSE([]float64{10, 20, 30}, []float64{10, 20, 30})
	require.NoError(t, err)
	require.Equal(t, 0.0, rmse)
}

func TestRMSEWithEmptySet(t *testing.T) {
	_, err := eval.RMSE(nil, nil)
	require.Equal(t, eval.ErrEmptyEvaluationSet, err)
}

func TestRMSEWithMismatchedLengths(t *testing.T) {
	_, err := eval.RMSE([]float64{12, 18}, []float64{10, 20, 30})
	require.Error(t, err)
	require.NotEqual(t, eval.ErrEmptyEvaluationSet, err)
}

func TestR2(t *testing.T) {
	r2, err := eval.R2([]float64{12, 18, 33}, []float64{10, 20, 30})
	require.NoError(t, err)
	require.InDelta(t, 1.0-17.0/200.0, r2, 1e-9)
}

func TestR2WithPerfectPredictions(t *testing.T) {
	r2, err := eval.R2([]float64{10, 20, 30}, []float64{10, 20, 30})
	require.NoError(t, err)
	require.Equal(t, 1.0, r2)
}

func TestR2WithConstantLabels(t *testing.T) {
	r2, err := eval.R2([]float64{12, 18}, []float64{20, 20})
	require.NoError(t, err)
	require.Equal(t, 0.0, r2)
}

func TestR2WithEmptySet(t *testing.T) {
	_, err := eval.R2(nil, nil)
	require.Equal(t, eval.ErrEmptyEvaluationSet, err)
}

func TestMetricDirections(t *testing.T) {
	require.True(t, eval.RMSEMetric{}.Better(1.0, 2.0))
	require.False(t, eval.RMSEMetric{}.Better(2.0, 1.0))
	require.True(t, eval.R2Metric{}.Better(0.9, 0.5))
	require.False(t, eval.R2Metric{}.Better(0.5, 0.9))
}

func TestMetricByName(t *testing.T) {
	m, err := eval.MetricByName("rmse")
	require.NoError(t, err)
	require.Equal(t, "rmse", m.Name())
	m, err = eval.MetricByName("r2")
	require.NoError(t, err)
	require.Equal(t, "r2", m.Name())
	_, err = eval.MetricByName("mae")
	require.Error(t, err)
}
