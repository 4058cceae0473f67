package model

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultNumTrees is the forest size used when a
	// ForestConfig does not set one.
	DefaultNumTrees = 20
	// DefaultFeatureSubsetFraction is the fraction of
	// features each member tree considers per split when
	// a ForestConfig does not set one.
	DefaultFeatureSubsetFraction = 1.0 / 3.0
)

/*
ForestConfig holds the hyperparameters of a random forest regressor.
Zero values select the defaults.
*/
type ForestConfig struct {
	TreeConfig
	// NumTrees is the number of member trees to grow.
	NumTrees int `json:"numTrees"`
	// FeatureSubsetFraction is the fraction of features
	// each member tree considers at every split.
	FeatureSubsetFraction float64 `json:"featureSubsetFraction"`
	// Seed fully determines the bootstrap resampling and
	// feature subsampling of every member tree: the same
	// seed over the same training data always grows the
	// same forest.
	Seed int64 `json:"seed"`
}

func (fc ForestConfig) withDefaults() ForestConfig {
	fc.TreeConfig = fc.TreeConfig.withDefaults()
	if fc.NumTrees == 0 {
		fc.NumTrees = DefaultNumTrees
	}
	if fc.FeatureSubsetFraction == 0 {
		fc.FeatureSubsetFraction = DefaultFeatureSubsetFraction
	}
	return fc
}

/*
RandomForestRegressor is an averaged collection of decision trees, each
grown on a bootstrap resample of the training data considering only a
random subset of the features at every split.

Member trees are mutually independent given their resampled views and
are grown concurrently; each member derives its own pseudorandom source
from the config's seed and its position in the forest, so the grown
forest does not depend on goroutine scheduling.

A prediction is the mean of all member trees' predictions, so it is
bounded by the range of label values observed during training, like the
single tree's.
*/
type RandomForestRegressor struct {
	config ForestConfig
	meta   FeatureMeta
	trees  []*DecisionTreeRegressor
}

/*
NewRandomForestRegressor takes a ForestConfig and a FeatureMeta and
returns a RandomForestRegressor ready to be fitted.
*/
func NewRandomForestRegressor(config ForestConfig, meta FeatureMeta) *RandomForestRegressor {
	return &RandomForestRegressor{config: config.withDefaults(), meta: meta}
}

/*
Fit takes a context, a slice of feature vectors and a slice of label
values and grows the forest's member trees from bootstrap resamples of
them. It returns a ConfigError if the config cannot represent the
categorical features, and an error describing the problem if the
training set is empty or inconsistently shaped, or if the context is
cancelled while growing.
*/
func (f *RandomForestRegressor) Fit(ctx context.Context, vectors [][]float64, labels []float64) error {
	if len(vectors) == 0 {
		return fmt.Errorf("fitting forest: empty training set")
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("fitting forest: %d vectors for %d labels", len(vectors), len(labels))
	}
	if maxCard, maxIndex := f.meta.MaxCardinality(); maxCard > f.config.MaxBins {
		return ConfigError(fmt.Sprintf("max-bins %d cannot represent categorical feature %s with %d categories: splits on it would be unrepresentable, increase max-bins to at least %d", f.config.MaxBins, f.meta.Names[maxIndex], maxCard, maxCard))
	}
	p := len(vectors[0])
	maxFeatures := int(f.config.FeatureSubsetFraction*float64(p) + 0.5)
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	trees := make([]*DecisionTreeRegressor, f.config.NumTrees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.config.Seed + int64(i)))
			bootVectors := make([][]float64, len(vectors))
			bootLabels := make([]float64, len(labels))
			for b := range bootVectors {
				s := rng.Intn(len(vectors))
				bootVectors[b] = vectors[s]
				bootLabels[b] = labels[s]
			}
			member := newMemberTree(f.config.TreeConfig, f.meta, maxFeatures, rng)
			err := member.Fit(gctx, bootVectors, bootLabels)
			if err != nil {
				return fmt.Errorf("fitting forest member %d: %v", i, err)
			}
			trees[i] = member
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	f.trees = trees
	return nil
}

/*
Predict takes a feature vector and returns the mean of the label values
the forest's member trees predict for it, or an error if the forest has
not been fitted or the vector has the wrong length.
*/
func (f *RandomForestRegressor) Predict(vector []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, fmt.Errorf("predicting: forest has not been fitted")
	}
	var sum float64
	for _, t := range f.trees {
		p, err := t.Predict(vector)
		if err != nil {
			return 0, err
		}
		sum += p
	}
	return sum / float64(len(f.trees)), nil
}

/*
FeatureImportances returns a non-negative score per input feature, in
feature-vector order: the mean of the member trees' importances,
normalized. It returns nil if the forest has not been fitted.
*/
func (f *RandomForestRegressor) FeatureImportances() []float64 {
	if len(f.trees) == 0 {
		return nil
	}
	result := make([]float64, len(f.trees[0].importances))
	for _, t := range f.trees {
		for j, s := range t.FeatureImportances() {
			result[j] += s
		}
	}
	normalize(result)
	return result
}

/*
Config returns the forest's configuration with defaults applied.
*/
func (f *RandomForestRegressor) Config() ForestConfig {
	return f.config
}

/*
Meta returns the FeatureMeta the forest was built with.
*/
func (f *RandomForestRegressor) Meta() FeatureMeta {
	return f.meta
}

func (f *RandomForestRegressor) String() string {
	if len(f.trees) == 0 {
		return "unfitted forest"
	}
	var b strings.Builder
	for i, t := range f.trees {
		fmt.Fprintf(&b, "tree %d:\n%s", i, t)
	}
	return b.String()
}
