package model

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

const (
	// DefaultMaxDepth is the maximum tree depth used when
	// a TreeConfig does not set one.
	DefaultMaxDepth = 5
	// DefaultMaxBins is the split-candidate bound used
	// when a TreeConfig does not set one.
	DefaultMaxBins = 32
)

/*
TreeConfig holds the hyperparameters of a decision tree regressor.
Zero values select the defaults.
*/
type TreeConfig struct {
	// MaxDepth bounds the depth of the tree; the root
	// node is at depth 0.
	MaxDepth int `json:"maxDepth"`
	// MaxBins bounds how many candidate split thresholds
	// are evaluated per feature. It must be at least as
	// large as the number of distinct categories of the
	// most granular categorical feature, otherwise
	// fitting fails with a ConfigError.
	MaxBins int `json:"maxBins"`
	// MinSamplesLeaf is the minimum number of training
	// samples each side of a split must keep.
	MinSamplesLeaf int `json:"minSamplesLeaf"`
	// MinVarianceDecrease is the minimum absolute decrease
	// in squared error a split must achieve to be taken.
	MinVarianceDecrease float64 `json:"minVarianceDecrease"`
}

func (tc TreeConfig) withDefaults() TreeConfig {
	if tc.MaxDepth == 0 {
		tc.MaxDepth = DefaultMaxDepth
	}
	if tc.MaxBins == 0 {
		tc.MaxBins = DefaultMaxBins
	}
	if tc.MinSamplesLeaf == 0 {
		tc.MinSamplesLeaf = 1
	}
	return tc
}

/*
DecisionTreeRegressor is a regression tree grown by recursively
splitting the training samples on the (feature, threshold) pair that
most decreases the squared error of the leaf predictions. Candidate
thresholds per feature are bounded by the config's MaxBins: features
with more distinct values than bins are discretized into quantile
boundaries before the split search.

A fitted tree predicts the mean training label of the leaf a vector
falls into, so predictions are always within the range of label values
observed during training.
*/
type DecisionTreeRegressor struct {
	config      TreeConfig
	meta        FeatureMeta
	root        *treeNode
	importances []float64

	// set on forest-member trees only: per-split feature
	// subsampling driven by the member's seeded source
	maxFeatures int
	rng         *rand.Rand
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	prediction float64
	count     int
}

/*
NewDecisionTreeRegressor takes a TreeConfig and a FeatureMeta and
returns a DecisionTreeRegressor ready to be fitted.
*/
func NewDecisionTreeRegressor(config TreeConfig, meta FeatureMeta) *DecisionTreeRegressor {
	return &DecisionTreeRegressor{config: config.withDefaults(), meta: meta}
}

func newMemberTree(config TreeConfig, meta FeatureMeta, maxFeatures int, rng *rand.Rand) *DecisionTreeRegressor {
	t := NewDecisionTreeRegressor(config, meta)
	t.maxFeatures = maxFeatures
	t.rng = rng
	return t
}

/*
Fit takes a context, a slice of feature vectors and a slice of label
values and grows the tree from them. It returns a ConfigError if the
config's MaxBins cannot represent the most granular categorical
feature, and an error describing the problem if the training set is
empty or inconsistently shaped, or if the context is cancelled while
growing.
*/
func (t *DecisionTreeRegressor) Fit(ctx context.Context, vectors [][]float64, labels []float64) error {
	if len(vectors) == 0 {
		return fmt.Errorf("fitting tree: empty training set")
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("fitting tree: %d vectors for %d labels", len(vectors), len(labels))
	}
	p := t.meta.NumFeatures()
	if p == 0 {
		p = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != p {
			return fmt.Errorf("fitting tree: vector %d has %d features, expected %d", i, len(v), p)
		}
	}
	if maxCard, maxIndex := t.meta.MaxCardinality(); maxCard > t.config.MaxBins {
		return ConfigError(fmt.Sprintf("max-bins %d cannot represent categorical feature %s with %d categories: splits on it would be unrepresentable, increase max-bins to at least %d", t.config.MaxBins, t.meta.Names[maxIndex], maxCard, maxCard))
	}
	thresholds := make([][]float64, p)
	for j := 0; j < p; j++ {
		thresholds[j] = candidateThresholds(vectors, j, t.config.MaxBins)
	}
	indices := make([]int, len(vectors))
	for i := range indices {
		indices[i] = i
	}
	t.importances = make([]float64, p)
	root, err := t.grow(ctx, vectors, labels, thresholds, indices, 0)
	if err != nil {
		return err
	}
	t.root = root
	normalize(t.importances)
	return nil
}

/*
Predict takes a feature vector and returns the label value the tree
predicts for it, or an error if the tree has not been fitted or the
vector has the wrong length.
*/
func (t *DecisionTreeRegressor) Predict(vector []float64) (float64, error) {
	if t.root == nil {
		return 0, fmt.Errorf("predicting: tree has not been fitted")
	}
	if expected := len(t.importances); len(vector) != expected {
		return 0, fmt.Errorf("predicting: vector has %d features, expected %d", len(vector), expected)
	}
	n := t.root
	for !n.leaf {
		if vector[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prediction, nil
}

/*
FeatureImportances returns a non-negative score per input feature, in
feature-vector order: each feature's share of the total squared-error
decrease achieved by the splits taken on it. It returns nil if the tree
has not been fitted.
*/
func (t *DecisionTreeRegressor) FeatureImportances() []float64 {
	if t.root == nil {
		return nil
	}
	result := make([]float64, len(t.importances))
	copy(result, t.importances)
	return result
}

/*
Config returns the tree's configuration with defaults applied.
*/
func (t *DecisionTreeRegressor) Config() TreeConfig {
	return t.config
}

/*
Meta returns the FeatureMeta the tree was built with.
*/
func (t *DecisionTreeRegressor) Meta() FeatureMeta {
	return t.meta
}

func (t *DecisionTreeRegressor) grow(ctx context.Context, vectors [][]float64, labels []float64, thresholds [][]float64, indices []int, depth int) (*treeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum, sse := sumAndSquaredError(labels, indices)
	node := &treeNode{
		leaf:       true,
		prediction: sum / float64(len(indices)),
		count:      len(indices),
	}
	if depth >= t.config.MaxDepth || len(indices) < 2*t.config.MinSamplesLeaf || sse == 0 {
		return node, nil
	}
	bestFeature, bestThreshold, bestGain := -1, 0.0, t.config.MinVarianceDecrease
	for _, j := range t.splitFeatures(len(thresholds)) {
		for _, threshold := range thresholds[j] {
			gain, ok := t.splitGain(vectors, labels, indices, j, threshold, sse)
			if ok && gain > bestGain {
				bestFeature, bestThreshold, bestGain = j, threshold, gain
			}
		}
	}
	if bestFeature < 0 {
		return node, nil
	}
	var leftIndices, rightIndices []int
	for _, i := range indices {
		if vectors[i][bestFeature] <= bestThreshold {
			leftIndices = append(leftIndices, i)
		} else {
			rightIndices = append(rightIndices, i)
		}
	}
	left, err := t.grow(ctx, vectors, labels, thresholds, leftIndices, depth+1)
	if err != nil {
		return nil, err
	}
	right, err := t.grow(ctx, vectors, labels, thresholds, rightIndices, depth+1)
	if err != nil {
		return nil, err
	}
	t.importances[bestFeature] += bestGain
	node.leaf = false
	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = left
	node.right = right
	return node, nil
}

// splitGain evaluates splitting the given indices on feature j at the
// given threshold and returns the decrease in squared error, or false
// when a side would keep fewer than MinSamplesLeaf samples.
func (t *DecisionTreeRegressor) splitGain(vectors [][]float64, labels []float64, indices []int, j int, threshold, sse float64) (float64, bool) {
	var leftSum, leftSqSum, rightSum, rightSqSum float64
	var leftCount, rightCount int
	for _, i := range indices {
		if vectors[i][j] <= threshold {
			leftSum += labels[i]
			leftSqSum += labels[i] * labels[i]
			leftCount++
		} else {
			rightSum += labels[i]
			rightSqSum += labels[i] * labels[i]
			rightCount++
		}
	}
	if leftCount < t.config.MinSamplesLeaf || rightCount < t.config.MinSamplesLeaf {
		return 0, false
	}
	leftSSE := leftSqSum - leftSum*leftSum/float64(leftCount)
	rightSSE := rightSqSum - rightSum*rightSum/float64(rightCount)
	return sse - leftSSE - rightSSE, true
}

// splitFeatures returns the indices of the features to consider for a
// split, in ascending order. Forest-member trees sample maxFeatures of
// them from the member's seeded source; plain trees consider them all.
func (t *DecisionTreeRegressor) splitFeatures(p int) []int {
	if t.maxFeatures <= 0 || t.maxFeatures >= p {
		all := make([]int, p)
		for j := range all {
			all[j] = j
		}
		return all
	}
	perm := t.rng.Perm(p)
	subset := append([]int{}, perm[:t.maxFeatures]...)
	sort.Ints(subset)
	return subset
}

func (t *DecisionTreeRegressor) String() string {
	if t.root == nil {
		return "unfitted tree"
	}
	var b strings.Builder
	t.writeNode(&b, t.root, 0)
	return b.String()
}

func (t *DecisionTreeRegressor) writeNode(b *strings.Builder, n *treeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.leaf {
		fmt.Fprintf(b, "%spredict %g (n=%d)\n", indent, n.prediction, n.count)
		return
	}
	fmt.Fprintf(b, "%sif %s <= %g\n", indent, t.featureName(n.feature), n.threshold)
	t.writeNode(b, n.left, depth+1)
	fmt.Fprintf(b, "%selse\n", indent)
	t.writeNode(b, n.right, depth+1)
}

func (t *DecisionTreeRegressor) featureName(j int) string {
	if j < len(t.meta.Names) {
		return t.meta.Names[j]
	}
	return fmt.Sprintf("feature %d", j)
}

// candidateThresholds returns the thresholds to evaluate for feature j:
// midpoints between consecutive distinct values when they fit within
// maxBins bins, quantile boundaries of the sorted values otherwise.
func candidateThresholds(vectors [][]float64, j, maxBins int) []float64 {
	values := make([]float64, len(vectors))
	for i, v := range vectors {
		values[i] = v[j]
	}
	sort.Float64s(values)
	distinct := values[:0:0]
	for i, v := range values {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}
	if len(distinct) <= maxBins {
		thresholds := make([]float64, len(distinct)-1)
		for i := range thresholds {
			thresholds[i] = (distinct[i] + distinct[i+1]) / 2
		}
		return thresholds
	}
	var thresholds []float64
	for b := 1; b < maxBins; b++ {
		i := b * len(values) / maxBins
		threshold := (values[i-1] + values[i]) / 2
		if len(thresholds) == 0 || threshold != thresholds[len(thresholds)-1] {
			thresholds = append(thresholds, threshold)
		}
	}
	return thresholds
}

func sumAndSquaredError(labels []float64, indices []int) (float64, float64) {
	var sum float64
	for _, i := range indices {
		sum += labels[i]
	}
	mean := sum / float64(len(indices))
	var sse float64
	for _, i := range indices {
		d := labels[i] - mean
		sse += d * d
	}
	return sum, sse
}

func normalize(scores []float64) {
	var total float64
	for _, s := range scores {
		total += s
	}
	if total == 0 {
		return
	}
	for i := range scores {
		scores[i] /= total
	}
}
