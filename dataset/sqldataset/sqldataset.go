/*
Package sqldataset provides an implementation of dataset.Dataset
that uses a SQL database as backend.

The package works over an Adapter interface that encapsulates the
differences between SQL backends. Implementations of the Adapter for
SQLite3 and PostgreSQL databases are available as subpackages.
*/
package sqldataset

import (
	"context"
	"fmt"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature"
)

/*
Adapter is an interface providing the methods needed to implement a
Dataset with a SQL database backend.
*/
type Adapter interface {
	// ColumnName takes the name of a feature and returns
	// the column name to store its values under, or an
	// error if the feature name cannot be used on the
	// backend.
	ColumnName(featureName string) (string, error)
	// CreateSampleTable ensures the samples table exists
	// on the database with the given categorical (text)
	// and continuous (floating-point) columns.
	CreateSampleTable(ctx context.Context, categoricalColumns, continuousColumns []string) error
	// AddSamples inserts the given raw samples, expressed
	// as column-name to value maps, into the samples table
	// and returns the number of samples actually inserted.
	AddSamples(ctx context.Context, rawSamples []map[string]interface{}, categoricalColumns, continuousColumns []string) (int, error)
	// IterateOnSamples goes over the samples table calling
	// the given lambda with each sample's index and values
	// until the lambda returns false or an error.
	IterateOnSamples(ctx context.Context, categoricalColumns, continuousColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error
	// CountSamples returns the number of samples on the
	// samples table.
	CountSamples(ctx context.Context) (int, error)
}

/*
Dataset is a dataset.Dataset to which samples can be added and from
which samples can be sequentially read.
*/
type Dataset interface {
	dataset.Dataset
	Write(context.Context, []dataset.Sample) (int, error)
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
}

type sqlDataset struct {
	db                  Adapter
	features            []feature.Feature
	featureNamesColumns map[string]string
	columnFeatures      map[string]feature.Feature
	categoricalColumns  []string
	continuousColumns   []string
	count               *int
}

/*
Open takes an Adapter to a db backend and a slice of feature.Feature
and returns a Dataset backed by the given adapter or an error.

This function expects the adapter to have the samples table already
created.
*/
func Open(ctx context.Context, dbAdapter Adapter, features []feature.Feature) (Dataset, error) {
	sds := &sqlDataset{db: dbAdapter, features: features}
	err := sds.initFeatureColumns()
	if err != nil {
		return nil, err
	}
	return sds, nil
}

/*
Create takes an Adapter and a slice of feature.Feature and returns a
Dataset backed by the given adapter or an error.

This function will ensure that the samples table is created on the
database.
*/
func Create(ctx context.Context, dbAdapter Adapter, features []feature.Feature) (Dataset, error) {
	sds := &sqlDataset{db: dbAdapter, features: features}
	err := sds.initFeatureColumns()
	if err != nil {
		return nil, err
	}
	err = sds.db.CreateSampleTable(ctx, sds.categoricalColumns, sds.continuousColumns)
	if err != nil {
		return nil, fmt.Errorf("creating samples table: %v", err)
	}
	return sds, nil
}

func (sds *sqlDataset) Count(ctx context.Context) (int, error) {
	if sds.count != nil {
		return *sds.count, nil
	}
	result, err := sds.db.CountSamples(ctx)
	if err == nil {
		sds.count = &result
	}
	return result, err
}

func (sds *sqlDataset) Samples(ctx context.Context) ([]dataset.Sample, error) {
	var samples []dataset.Sample
	err := sds.db.IterateOnSamples(ctx, sds.categoricalColumns, sds.continuousColumns,
		func(_ int, rawSample map[string]interface{}) (bool, error) {
			s, err := sds.sampleFromRawSample(rawSample)
			if err != nil {
				return false, err
			}
			samples = append(samples, s)
			return true, nil
		})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (sds *sqlDataset) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	rawSamples := make([]map[string]interface{}, 0, len(samples))
	for _, s := range samples {
		rawSample := make(map[string]interface{})
		for _, f := range sds.features {
			v, err := s.ValueFor(f)
			if err != nil {
				return 0, err
			}
			if v != nil {
				rawSample[sds.featureNamesColumns[f.Name()]] = v
			}
		}
		rawSamples = append(rawSamples, rawSample)
	}
	n, err := sds.db.AddSamples(ctx, rawSamples, sds.categoricalColumns, sds.continuousColumns)
	if err != nil {
		err = fmt.Errorf("writing samples: %v", err)
	}
	sds.count = nil
	return n, err
}

func (sds *sqlDataset) Read(ctx context.Context) (<-chan dataset.Sample, <-chan error) {
	sampleStream := make(chan dataset.Sample)
	errStream := make(chan error)
	go func() {
		err := sds.db.IterateOnSamples(ctx, sds.categoricalColumns, sds.continuousColumns,
			func(_ int, rawSample map[string]interface{}) (bool, error) {
				s, err := sds.sampleFromRawSample(rawSample)
				if err != nil {
					return false, err
				}
				select {
				case <-ctx.Done():
					return false, ctx.Err()
				case sampleStream <- s:
				}
				return true, nil
			})
		if err != nil {
			go func() {
				errStream <- err
				close(errStream)
			}()
		} else {
			close(errStream)
		}
		close(sampleStream)
	}()
	return sampleStream, errStream
}

func (sds *sqlDataset) initFeatureColumns() error {
	sds.featureNamesColumns = make(map[string]string)
	sds.columnFeatures = make(map[string]feature.Feature)
	for _, f := range sds.features {
		column, err := sds.db.ColumnName(f.Name())
		if err != nil {
			return err
		}
		sds.featureNamesColumns[f.Name()] = column
		sds.columnFeatures[column] = f
		if _, ok := f.(*feature.CategoricalFeature); ok {
			sds.categoricalColumns = append(sds.categoricalColumns, column)
		} else {
			sds.continuousColumns = append(sds.continuousColumns, column)
		}
	}
	return nil
}

func (sds *sqlDataset) sampleFromRawSample(rawSample map[string]interface{}) (dataset.Sample, error) {
	featureValues := make(map[string]interface{})
	for column, v := range rawSample {
		f, ok := sds.columnFeatures[column]
		if !ok {
			return nil, fmt.Errorf("reading sample: unknown column %s", column)
		}
		if v == nil {
			continue
		}
		if ok, err := f.Valid(v); !ok {
			return nil, fmt.Errorf("reading sample: %v", err)
		}
		featureValues[f.Name()] = v
	}
	return dataset.NewSample(featureValues), nil
}
