/*
Package eval provides the regression metrics used to score trained
models over held-out data: root-mean-squared error and the coefficient
of determination.
*/
package eval

import (
	"fmt"
	"math"
)

/*
Error represents an error computing a metric.
*/
type Error string

func (e Error) Error() string {
	return string(e)
}

/*
ErrEmptyEvaluationSet is the error returned when computing a metric
over an empty set of predictions, for which the metrics are undefined.
*/
const ErrEmptyEvaluationSet = Error("cannot evaluate an empty set of predictions")

/*
Metric scores a slice of predictions against the corresponding slice of
true label values. Its Better method declares the direction of the
metric: it returns true when score a is preferable to score b.
*/
type Metric interface {
	Name() string
	Score(predictions, labels []float64) (float64, error)
	Better(a, b float64) bool
}

/*
RMSE takes a slice of predictions and a slice of the corresponding true
label values and returns the root of the mean squared difference
between them. It returns ErrEmptyEvaluationSet if the slices are empty
and an error if their lengths differ.
*/
func RMSE(predictions, labels []float64) (float64, error) {
	if len(predictions) != len(labels) {
		return 0, fmt.Errorf("computing RMSE: %d predictions for %d labels", len(predictions), len(labels))
	}
	if len(predictions) == 0 {
		return 0, ErrEmptyEvaluationSet
	}
	var sse float64
	for i := range predictions {
		d := predictions[i] - labels[i]
		sse += d * d
	}
	return math.Sqrt(sse / float64(len(predictions))), nil
}

/*
R2 takes a slice of predictions and a slice of the corresponding true
label values and returns the fraction of the label variance the
predictions explain: 1 minus the ratio of the sum of squared residuals
to the total sum of squares around the label mean. It returns
ErrEmptyEvaluationSet if the slices are empty and an error if their
lengths differ.
*/
func R2(predictions, labels []float64) (float64, error) {
	if len(predictions) != len(labels) {
		return 0, fmt.Errorf("computing R2: %d predictions for %d labels", len(predictions), len(labels))
	}
	if len(predictions) == 0 {
		return 0, ErrEmptyEvaluationSet
	}
	var mean float64
	for _, l := range labels {
		mean += l
	}
	mean /= float64(len(labels))
	var ssRes, ssTot float64
	for i := range predictions {
		r := labels[i] - predictions[i]
		ssRes += r * r
		d := labels[i] - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

/*
RMSEMetric is the Metric for RMSE: lower scores are better.
*/
type RMSEMetric struct{}

/*
Name returns the name of the metric
*/
func (RMSEMetric) Name() string {
	return "rmse"
}

/*
Score computes RMSE over the given predictions and labels.
*/
func (RMSEMetric) Score(predictions, labels []float64) (float64, error) {
	return RMSE(predictions, labels)
}

/*
Better returns true when score a is lower than score b.
*/
func (RMSEMetric) Better(a, b float64) bool {
	return a < b
}

/*
R2Metric is the Metric for R2: higher scores are better.
*/
type R2Metric struct{}

/*
Name returns the name of the metric
*/
func (R2Metric) Name() string {
	return "r2"
}

/*
Score computes R2 over the given predictions and labels.
*/
func (R2Metric) Score(predictions, labels []float64) (float64, error) {
	return R2(predictions, labels)
}

/*
Better returns true when score a is higher than score b.
*/
func (R2Metric) Better(a, b float64) bool {
	return a > b
}

/*
MetricByName takes a metric name and returns the Metric it names or an
error if the name is unknown.
*/
func MetricByName(name string) (Metric, error) {
	switch name {
	case "rmse":
		return RMSEMetric{}, nil
	case "r2":
		return R2Metric{}, nil
	}
	return nil, fmt.Errorf("unknown metric %s", name)
}
