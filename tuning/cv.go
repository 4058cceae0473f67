package tuning

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pbanos/grove/eval"
	"github.com/pbanos/grove/model"
	"golang.org/x/sync/errgroup"
)

/*
EstimatorBuilder builds a fresh, unfitted estimator configured with the
given grid point. Builders must not share mutable state between the
estimators they return: the cross validator fits estimators for
different grid points and folds concurrently.
*/
type EstimatorBuilder func(params ParamMap) (model.Estimator, error)

/*
CrossValidator selects the best grid point of a hyperparameter grid by
k-fold cross validation and refits it on the whole training set.
*/
type CrossValidator struct {
	// Builder builds the estimator to evaluate for a
	// given grid point.
	Builder EstimatorBuilder
	// Grid is the list of grid points to evaluate. It
	// cannot be empty.
	Grid []ParamMap
	// Metric scores a fitted estimator over a held-out
	// fold and declares which scores are better.
	Metric eval.Metric
	// NumFolds is the number of cross-validation folds,
	// at least 2.
	NumFolds int
	// Parallelism bounds how many grid-point/fold
	// evaluations run concurrently, at least 1. It never
	// changes the selected grid point or its average
	// score, only how fast they are found.
	Parallelism int
	// Seed fully determines the fold partition.
	Seed int64
}

/*
Result holds the outcome of a cross-validated search: the average
validation score of every grid point, the selected grid point and the
estimator refitted on the whole training set with it.
*/
type Result struct {
	// AvgScores holds the per-grid-point validation
	// scores averaged over all folds, in grid order.
	AvgScores []float64
	// BestIndex is the index in the grid of the selected
	// grid point.
	BestIndex int
	// BestParams is the selected grid point.
	BestParams ParamMap
	// BestScore is the selected grid point's average
	// validation score.
	BestScore float64
	// Best is an estimator built with the selected grid
	// point and fitted on the whole training set.
	Best model.Estimator
}

type evalTask struct {
	gridIndex int
	foldIndex int
}

/*
Fit takes a context, a slice of feature vectors and a slice of label
values, evaluates every grid point over every fold on a pool of
workers, selects the grid point with the best average score and refits
it on all the given vectors and labels. Ties select the earliest grid
point, so the selection is deterministic.

It returns an error if the validator is misconfigured, if the training
set is smaller than the number of folds, or if any evaluation fails.
*/
func (cv *CrossValidator) Fit(ctx context.Context, vectors [][]float64, labels []float64) (*Result, error) {
	err := cv.validate(vectors, labels)
	if err != nil {
		return nil, err
	}
	folds := cv.foldIndices(len(vectors))
	scores := make([]float64, len(cv.Grid)*cv.NumFolds)
	tasks := make(chan evalTask)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cv.Parallelism; w++ {
		g.Go(func() error {
			for task := range tasks {
				score, err := cv.evaluate(gctx, vectors, labels, folds, task)
				if err != nil {
					return err
				}
				scores[task.gridIndex*cv.NumFolds+task.foldIndex] = score
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(tasks)
		for gi := range cv.Grid {
			for fi := 0; fi < cv.NumFolds; fi++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case tasks <- evalTask{gridIndex: gi, foldIndex: fi}:
				}
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result := &Result{AvgScores: make([]float64, len(cv.Grid)), BestIndex: -1}
	for gi := range cv.Grid {
		var sum float64
		for fi := 0; fi < cv.NumFolds; fi++ {
			sum += scores[gi*cv.NumFolds+fi]
		}
		avg := sum / float64(cv.NumFolds)
		result.AvgScores[gi] = avg
		if result.BestIndex < 0 || cv.Metric.Better(avg, result.BestScore) {
			result.BestIndex = gi
			result.BestScore = avg
		}
	}
	result.BestParams = cv.Grid[result.BestIndex]
	best, err := cv.Builder(result.BestParams)
	if err != nil {
		return nil, fmt.Errorf("building estimator for selected grid point: %v", err)
	}
	err = best.Fit(ctx, vectors, labels)
	if err != nil {
		return nil, fmt.Errorf("refitting selected grid point on the full training set: %v", err)
	}
	result.Best = best
	return result, nil
}

// evaluate trains an estimator for the task's grid point on all folds
// but the task's and scores it on the held-out one. Each evaluation
// works on its own data slices and fresh estimator, so evaluations are
// safe to run concurrently in any order.
func (cv *CrossValidator) evaluate(ctx context.Context, vectors [][]float64, labels []float64, folds [][]int, task evalTask) (float64, error) {
	var trainVectors [][]float64
	var trainLabels []float64
	for fi, fold := range folds {
		if fi == task.foldIndex {
			continue
		}
		for _, i := range fold {
			trainVectors = append(trainVectors, vectors[i])
			trainLabels = append(trainLabels, labels[i])
		}
	}
	est, err := cv.Builder(cv.Grid[task.gridIndex])
	if err != nil {
		return 0, fmt.Errorf("building estimator for grid point %d: %v", task.gridIndex, err)
	}
	err = est.Fit(ctx, trainVectors, trainLabels)
	if err != nil {
		return 0, fmt.Errorf("fitting grid point %d on folds other than %d: %v", task.gridIndex, task.foldIndex, err)
	}
	heldOut := folds[task.foldIndex]
	predictions := make([]float64, len(heldOut))
	heldOutLabels := make([]float64, len(heldOut))
	for i, sample := range heldOut {
		predictions[i], err = est.Predict(vectors[sample])
		if err != nil {
			return 0, fmt.Errorf("scoring grid point %d on fold %d: %v", task.gridIndex, task.foldIndex, err)
		}
		heldOutLabels[i] = labels[sample]
	}
	score, err := cv.Metric.Score(predictions, heldOutLabels)
	if err != nil {
		return 0, fmt.Errorf("scoring grid point %d on fold %d: %v", task.gridIndex, task.foldIndex, err)
	}
	return score, nil
}

// foldIndices partitions the sample indices into NumFolds roughly
// equal disjoint folds drawn from the seeded permutation of the
// training set.
func (cv *CrossValidator) foldIndices(n int) [][]int {
	r := rand.New(rand.NewSource(cv.Seed))
	perm := r.Perm(n)
	folds := make([][]int, cv.NumFolds)
	for i, pi := range perm {
		fi := i % cv.NumFolds
		folds[fi] = append(folds[fi], pi)
	}
	return folds
}

func (cv *CrossValidator) validate(vectors [][]float64, labels []float64) error {
	if cv.Builder == nil {
		return model.ConfigError("cross validator has no estimator builder")
	}
	if cv.Metric == nil {
		return model.ConfigError("cross validator has no metric")
	}
	if len(cv.Grid) == 0 {
		return ErrEmptyGrid
	}
	if cv.NumFolds < 2 {
		return model.ConfigError(fmt.Sprintf("cross validation requires at least 2 folds, got %d", cv.NumFolds))
	}
	if cv.Parallelism < 1 {
		return model.ConfigError(fmt.Sprintf("cross validation requires a parallelism degree of at least 1, got %d", cv.Parallelism))
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("cross validating: %d vectors for %d labels", len(vectors), len(labels))
	}
	if len(vectors) < cv.NumFolds {
		return fmt.Errorf("cross validating: cannot partition %d samples into %d folds", len(vectors), cv.NumFolds)
	}
	return nil
}
