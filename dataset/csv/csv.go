/*
Package csv provides methods to read and write datasets as CSV streams.

The header or first row of a CSV stream is expected to consist of the
names of the dataset's features. The rest of the rows should consist of
valid values for all the features and/or the '?' string to indicate an
undefined value.
*/
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature"
)

/*
Writer is an interface for a destination to which samples can be
written.
*/
type Writer interface {
	// Write will attempt to write the given samples and
	// will return the actually written number of samples
	// and an error (if not all samples could be written)
	Write(context.Context, []dataset.Sample) (int, error)
	// Count returns the total number of samples written
	// to the writer
	Count() int
	// Flush ensures any pending write operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

type csvWriter struct {
	count    int
	features []feature.Feature
	w        *csv.Writer
}

/*
ReadDataset takes an io.Reader for a CSV stream and a slice of features
and returns a dataset.Dataset with the samples parsed from the reader or
an error.
*/
func ReadDataset(reader io.Reader, features []feature.Feature) (dataset.Dataset, error) {
	samples := []dataset.Sample{}
	err := ReadDatasetBySample(reader, features, func(_ int, s dataset.Sample) (bool, error) {
		samples = append(samples, s)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return dataset.New(samples), nil
}

/*
ReadDatasetBySample takes an io.Reader for a CSV stream, a slice of
features and a lambda function on an integer and a dataset.Sample that
returns a boolean value. It parses the samples from the reader and for
each it calls the lambda function with the sample and its index as
parameters. If the lambda function returns true, it will continue
processing the next sample, otherwise it will stop. An error is returned
if something goes wrong when reading the stream or parsing a sample.
*/
func ReadDatasetBySample(reader io.Reader, features []feature.Feature, lambda func(int, dataset.Sample) (bool, error)) error {
	featuresByName := featureSliceToMap(features)
	r := csv.NewReader(reader)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %v", err)
	}
	featureOrder, err := parseFeaturesFromCSVHeader(header, featuresByName)
	if err != nil {
		return err
	}
	for l := 2; ; l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading body: %v", err)
		}
		sample, err := parseSampleFromCSVRow(row, featureOrder)
		if err != nil {
			return fmt.Errorf("parsing line %d: %v", l, err)
		}
		ok, err := lambda(l-2, sample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return nil
}

/*
ReadDatasetFromFilePath takes a filepath string and a slice of features,
opens the file the filepath points to (os.Stdin if the filepath is "")
and uses ReadDataset to return a dataset.Dataset read from it or an
error.
*/
func ReadDatasetFromFilePath(filepath string, features []feature.Feature) (dataset.Dataset, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %v", err)
		}
	}
	defer f.Close()
	ds, err := ReadDataset(f, features)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return ds, err
}

/*
NewWriter takes an io.Writer and a slice of feature.Feature and returns
a Writer that will write samples on the io.Writer, or an error if the
CSV header cannot be written.
*/
func NewWriter(writer io.Writer, features []feature.Feature) (Writer, error) {
	w := csv.NewWriter(writer)
	record := make([]string, len(features))
	for i, f := range features {
		record[i] = f.Name()
	}
	err := w.Write(record)
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %v", err)
	}
	return &csvWriter{features: features, w: w}, nil
}

/*
WriteDataset takes a context, an io.Writer, a dataset.Dataset and a
slice of features and dumps the dataset to the writer in CSV format,
specifying only the features in the given slice for the samples. It
returns an error if something went wrong when writing to the writer or
codifying the samples.
*/
func WriteDataset(ctx context.Context, writer io.Writer, ds dataset.Dataset, features []feature.Feature) error {
	cw, err := NewWriter(writer, features)
	if err != nil {
		return err
	}
	samples, err := ds.Samples(ctx)
	if err != nil {
		return err
	}
	_, err = cw.Write(ctx, samples)
	if err != nil {
		return err
	}
	return cw.Flush()
}

func parseFeaturesFromCSVHeader(header []string, features map[string]feature.Feature) ([]feature.Feature, error) {
	featureOrder := []feature.Feature{}
	for _, name := range header {
		f, ok := features[name]
		if !ok {
			return nil, fmt.Errorf("parsing header: reference to unknown feature %s", name)
		}
		featureOrder = append(featureOrder, f)
	}
	return featureOrder, nil
}

func parseSampleFromCSVRow(row []string, featureOrder []feature.Feature) (dataset.Sample, error) {
	featureValues := make(map[string]interface{})
	for i, f := range featureOrder {
		v := row[i]
		var value interface{}
		var err error
		var ok bool
		if v != "?" {
			if _, ok = f.(*feature.ContinuousFeature); ok {
				value, err = strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("converting %s to float64: %v", v, err)
				}
			} else {
				value = v
			}
		}
		if ok, err = f.Valid(value); !ok {
			return nil, fmt.Errorf("invalid value %v of type %T for feature %s: %v", value, value, f.Name(), err)
		}
		featureValues[f.Name()] = value
	}
	return dataset.NewSample(featureValues), nil
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	for n := 0; n < len(samples); n++ {
		err := cw.writeSample(samples[n])
		if err != nil {
			return n, err
		}
	}
	return len(samples), nil
}

func (cw *csvWriter) writeSample(sample dataset.Sample) error {
	record := make([]string, len(cw.features))
	for j, f := range cw.features {
		v, err := sample.ValueFor(f)
		if err != nil {
			return err
		}
		if v == nil {
			record[j] = "?"
		} else {
			record[j] = fmt.Sprintf("%v", v)
		}
	}
	err := cw.w.Write(record)
	if err != nil {
		return fmt.Errorf("writing CSV row for sample %d: %v", cw.count+1, err)
	}
	cw.count++
	return nil
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

func featureSliceToMap(features []feature.Feature) map[string]feature.Feature {
	result := make(map[string]feature.Feature)
	for _, f := range features {
		result[f.Name()] = f
	}
	return result
}
