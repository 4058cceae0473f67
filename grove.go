/*
Package grove grows tree-based regression models over tabular datasets.

It ties together the feature-preparation stages and the estimators into
end-to-end pipelines: a dataset's categorical columns are encoded to
numeric codes, its columns are assembled into fixed-order feature
vectors, and a decision tree or random forest is fitted on them,
optionally selecting its hyperparameters by cross-validated grid
search. The fitted pipeline predicts label values for raw samples and
scores itself over held-out datasets.
*/
package grove

import (
	"context"
	"fmt"
	"sort"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/eval"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/model"
	"github.com/pbanos/grove/pipeline"
	"github.com/pbanos/grove/tuning"
)

/*
EstimatorBuilder builds the unfitted estimator a pipeline will train,
given the layout of the feature vectors the pipeline assembles.
*/
type EstimatorBuilder func(meta model.FeatureMeta) (model.Estimator, error)

/*
SearchEstimatorBuilder builds the unfitted estimator a cross-validated
search will evaluate for a grid point, given the layout of the feature
vectors the pipeline assembles.
*/
type SearchEstimatorBuilder func(params tuning.ParamMap, meta model.FeatureMeta) (model.Estimator, error)

/*
SearchConfig configures the cross-validated grid search TrainWithSearch
performs: the grid of candidate hyperparameter values, the scoring
metric with its better-direction, the number of folds, the parallelism
degree bounding concurrent evaluations and the seed determining the
fold partition.
*/
type SearchConfig struct {
	Grid        []tuning.ParamMap
	Metric      eval.Metric
	NumFolds    int
	Parallelism int
	Seed        int64
}

/*
PipelineModel is a fitted end-to-end regression pipeline: the encoding
tables fitted on the training data, the feature-vector layout and the
trained estimator. All of it is read-only after training: predicting
reuses the training-time preparation identically.
*/
type PipelineModel struct {
	Label     *feature.ContinuousFeature
	Columns   *feature.Columns
	Indexer   *pipeline.StringIndexer
	Assembler *pipeline.VectorAssembler
	Estimator model.Estimator
}

/*
Report holds the scores of a PipelineModel over a held-out dataset,
along with the number of samples scored and the number of samples
skipped because of category values unseen during training.
*/
type Report struct {
	RMSE    float64
	R2      float64
	Count   int
	Skipped int
}

/*
Importance holds the importance score of a named input feature of a
fitted pipeline.
*/
type Importance struct {
	Feature string
	Score   float64
}

/*
Train takes a context, a training dataset, the dataset's features in
schema order, the name of the label feature, an estimator builder and
an unseen-category policy, and fits an end-to-end pipeline: it splits
the schema into column roles, fits a StringIndexer for the categorical
columns on the dataset, encodes the dataset with it, assembles feature
vectors and fits the built estimator on them.

It returns the fitted PipelineModel or an error if any stage fails.
*/
func Train(ctx context.Context, ds dataset.Dataset, features []feature.Feature, label string, build EstimatorBuilder, policy pipeline.UnseenPolicy) (*PipelineModel, error) {
	pm, vectors, labels, err := prepare(ctx, ds, features, label, policy)
	if err != nil {
		return nil, err
	}
	est, err := build(pm.meta())
	if err != nil {
		return nil, fmt.Errorf("building estimator: %v", err)
	}
	err = est.Fit(ctx, vectors, labels)
	if err != nil {
		return nil, err
	}
	pm.Estimator = est
	return pm, nil
}

/*
TrainWithSearch works like Train but selects the estimator's
hyperparameters by cross-validated grid search before the final fit:
the dataset is prepared once, every grid point is evaluated over every
fold with the given parallelism degree, and the best grid point is
refitted on the whole prepared training set.

It returns the fitted PipelineModel, the search result with the
per-grid-point average scores, or an error if any stage fails.
*/
func TrainWithSearch(ctx context.Context, ds dataset.Dataset, features []feature.Feature, label string, build SearchEstimatorBuilder, policy pipeline.UnseenPolicy, search SearchConfig) (*PipelineModel, *tuning.Result, error) {
	pm, vectors, labels, err := prepare(ctx, ds, features, label, policy)
	if err != nil {
		return nil, nil, err
	}
	meta := pm.meta()
	cv := &tuning.CrossValidator{
		Builder: func(params tuning.ParamMap) (model.Estimator, error) {
			return build(params, meta)
		},
		Grid:        search.Grid,
		Metric:      search.Metric,
		NumFolds:    search.NumFolds,
		Parallelism: search.Parallelism,
		Seed:        search.Seed,
	}
	result, err := cv.Fit(ctx, vectors, labels)
	if err != nil {
		return nil, nil, err
	}
	pm.Estimator = result.Best
	return pm, result, nil
}

/*
Predict takes a context and a sample and returns the label value the
pipeline predicts for it. pipeline.ErrUnseenCategory is returned when
the sample has a category value unseen during training, whatever the
pipeline's policy: callers decide whether to skip the sample or abort.
*/
func (pm *PipelineModel) Predict(ctx context.Context, s dataset.Sample) (float64, error) {
	is, err := pm.Indexer.ApplyToSample(s)
	if err != nil {
		return 0, err
	}
	vector, err := pm.Assembler.AssembleSample(is)
	if err != nil {
		return 0, err
	}
	return pm.Estimator.Predict(vector)
}

/*
Evaluate takes a context and a labeled held-out dataset and returns a
Report with the pipeline's RMSE and R2 over it. Samples with category
values unseen during training are skipped and counted on the report
when the pipeline's policy is to skip them, and abort the evaluation
otherwise. An evaluation in which every sample is skipped fails with
eval.ErrEmptyEvaluationSet.
*/
func (pm *PipelineModel) Evaluate(ctx context.Context, ds dataset.Dataset) (*Report, error) {
	samples, err := ds.Samples(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluating: %v", err)
	}
	var predictions, labels []float64
	var skipped int
	for i, s := range samples {
		prediction, err := pm.Predict(ctx, s)
		if err == pipeline.ErrUnseenCategory && pm.Indexer.Policy() == pipeline.SkipUnseen {
			skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("evaluating sample %d: %v", i, err)
		}
		v, err := s.ValueFor(pm.Label)
		if err != nil {
			return nil, fmt.Errorf("evaluating sample %d: %v", i, err)
		}
		label, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("evaluating sample %d: no defined value for label %s", i, pm.Label.Name())
		}
		predictions = append(predictions, prediction)
		labels = append(labels, label)
	}
	rmse, err := eval.RMSE(predictions, labels)
	if err != nil {
		return nil, err
	}
	r2, err := eval.R2(predictions, labels)
	if err != nil {
		return nil, err
	}
	return &Report{RMSE: rmse, R2: r2, Count: len(predictions), Skipped: skipped}, nil
}

/*
FeatureImportances returns the estimator's per-feature importance
scores paired with the input feature names, sorted by descending score
with ties broken by input order.
*/
func (pm *PipelineModel) FeatureImportances() []Importance {
	names := pm.Assembler.InputNames()
	scores := pm.Estimator.FeatureImportances()
	importances := make([]Importance, len(names))
	for i, name := range names {
		importances[i] = Importance{Feature: name}
		if i < len(scores) {
			importances[i].Score = scores[i]
		}
	}
	sort.SliceStable(importances, func(i, j int) bool {
		return importances[i].Score > importances[j].Score
	})
	return importances
}

/*
Restore takes a schema's features in declared order, the name of the
label feature, an unseen-category policy, the per-column encoding
tables of a fitted StringIndexer (category values in code order) and a
fitted estimator, and rebuilds the PipelineModel they belonged to. It
is meant to rebuild pipelines from persisted models.
*/
func Restore(features []feature.Feature, label string, policy pipeline.UnseenPolicy, mappings map[string][]string, est model.Estimator) (*PipelineModel, error) {
	cols, err := feature.SplitColumns(features, label)
	if err != nil {
		return nil, err
	}
	indexer := pipeline.RestoreStringIndexer(cols.Categorical, policy, mappings)
	inputs := make([]feature.Feature, 0, len(cols.Categorical)+len(cols.Continuous))
	for _, f := range cols.Categorical {
		inputs = append(inputs, f)
	}
	for _, f := range cols.Continuous {
		inputs = append(inputs, f)
	}
	return &PipelineModel{
		Label:     cols.Label,
		Columns:   cols,
		Indexer:   indexer,
		Assembler: pipeline.NewVectorAssembler(inputs),
		Estimator: est,
	}, nil
}

func (pm *PipelineModel) meta() model.FeatureMeta {
	meta := model.FeatureMeta{Names: pm.Assembler.InputNames()}
	meta.CategoricalCardinality = make([]int, len(meta.Names))
	for i, name := range meta.Names {
		meta.CategoricalCardinality[i] = pm.Indexer.Cardinality(name)
	}
	return meta
}

func prepare(ctx context.Context, ds dataset.Dataset, features []feature.Feature, label string, policy pipeline.UnseenPolicy) (*PipelineModel, [][]float64, []float64, error) {
	cols, err := feature.SplitColumns(features, label)
	if err != nil {
		return nil, nil, nil, err
	}
	indexer := pipeline.NewStringIndexer(cols.Categorical, policy)
	err = indexer.Fit(ctx, ds)
	if err != nil {
		return nil, nil, nil, err
	}
	encoded, _, err := indexer.Apply(ctx, ds)
	if err != nil {
		return nil, nil, nil, err
	}
	inputs := make([]feature.Feature, 0, len(cols.Categorical)+len(cols.Continuous))
	for _, f := range cols.Categorical {
		inputs = append(inputs, f)
	}
	for _, f := range cols.Continuous {
		inputs = append(inputs, f)
	}
	assembler := pipeline.NewVectorAssembler(inputs)
	vectors, labels, err := assembler.Assemble(ctx, encoded, cols.Label)
	if err != nil {
		return nil, nil, nil, err
	}
	pm := &PipelineModel{Label: cols.Label, Columns: cols, Indexer: indexer, Assembler: assembler}
	return pm, vectors, labels, nil
}
