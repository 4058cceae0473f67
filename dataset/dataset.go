/*
Package dataset provides immutable in-memory collections of samples and
a seeded random split to partition them into training and test subsets.
*/
package dataset

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pbanos/grove/feature"
)

/*
Dataset represents an ordered collection of samples.

Its Samples method returns the samples it contains, always in the same
order. Its Count method returns the number of samples it contains.
*/
type Dataset interface {
	Samples(context.Context) ([]Sample, error)
	Count(context.Context) (int, error)
}

type memDataset struct {
	samples []Sample
}

/*
New takes a slice of samples and returns a Dataset built with them. The
dataset keeps the slice as given: its sample order is the insertion
order and never changes afterwards.
*/
func New(samples []Sample) Dataset {
	return &memDataset{samples}
}

func (ds *memDataset) Samples(ctx context.Context) ([]Sample, error) {
	return ds.samples, nil
}

func (ds *memDataset) Count(ctx context.Context) (int, error) {
	return len(ds.samples), nil
}

/*
Split takes a context, a dataset, a training fraction in the (0, 1)
interval and a seed, and partitions the dataset's samples into two
disjoint datasets: a training dataset with approximately the given
fraction of the samples and a test dataset with the rest.

The partition is drawn from a pseudorandom permutation fully determined
by the seed: the same dataset, fraction and seed always produce the same
split. An error is returned if the fraction is out of range or the
samples cannot be obtained.
*/
func Split(ctx context.Context, ds Dataset, trainFraction float64, seed int64) (Dataset, Dataset, error) {
	if trainFraction <= 0.0 || trainFraction >= 1.0 {
		return nil, nil, fmt.Errorf("splitting dataset: training fraction %f is not in the (0, 1) interval", trainFraction)
	}
	samples, err := ds.Samples(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("splitting dataset: %v", err)
	}
	n := len(samples)
	r := rand.New(rand.NewSource(seed))
	perm := r.Perm(n)
	trainCount := int(float64(n) * trainFraction)
	train := make([]Sample, 0, trainCount)
	test := make([]Sample, 0, n-trainCount)
	for i, pi := range perm {
		if i < trainCount {
			train = append(train, samples[pi])
		} else {
			test = append(test, samples[pi])
		}
	}
	return New(train), New(test), nil
}

/*
LabelValues takes a context, a dataset and a continuous label feature
and returns the label value of every sample in dataset order. Samples
without a defined label value make the function fail with an error.
*/
func LabelValues(ctx context.Context, ds Dataset, label feature.Feature) ([]float64, error) {
	samples, err := ds.Samples(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, len(samples))
	for i, s := range samples {
		v, err := s.ValueFor(label)
		if err != nil {
			return nil, err
		}
		fv, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("sample %d has no defined value for label %s", i, label.Name())
		}
		values = append(values, fv)
	}
	return values, nil
}
