/*
Package model provides tree-based regression estimators trained on
assembled feature vectors: a single decision tree whose split search is
bounded by a max-bins discretization, and a random forest of such trees
grown on bootstrap-resampled, feature-subsampled views of the training
data.
*/
package model

import "context"

/*
Estimator is the capability shared by all regression estimators.

Its Fit method trains the estimator on a training set of feature
vectors and label values. Its Predict method returns a predicted label
value for a feature vector. Its FeatureImportances method returns a
non-negative score per input feature, in feature-vector order,
reflecting how much each feature contributed to reducing prediction
error; scores are comparable in relative magnitude.
*/
type Estimator interface {
	Fit(ctx context.Context, vectors [][]float64, labels []float64) error
	Predict(vector []float64) (float64, error)
	FeatureImportances() []float64
}

/*
ConfigError represents an invalid estimator or search configuration.
It aborts a run: it is never produced by the data itself.
*/
type ConfigError string

func (ce ConfigError) Error() string {
	return string(ce)
}

/*
FeatureMeta describes the layout of the feature vectors an estimator is
trained on: the name of each input feature and, for inputs encoding a
categorical column, the number of distinct categories its codes can
take (0 for continuous inputs).
*/
type FeatureMeta struct {
	Names                  []string `json:"names"`
	CategoricalCardinality []int    `json:"categoricalCardinality"`
}

/*
NumFeatures returns the number of input features the meta describes.
*/
func (fm FeatureMeta) NumFeatures() int {
	return len(fm.Names)
}

/*
MaxCardinality returns the number of categories of the most granular
categorical input, along with its index, or (0, -1) if there are no
categorical inputs.
*/
func (fm FeatureMeta) MaxCardinality() (int, int) {
	maxCard, maxIndex := 0, -1
	for i, c := range fm.CategoricalCardinality {
		if c > maxCard {
			maxCard, maxIndex = c, i
		}
	}
	return maxCard, maxIndex
}
