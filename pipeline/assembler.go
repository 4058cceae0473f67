package pipeline

import (
	"context"
	"fmt"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature"
)

/*
VectorAssembler concatenates the values of an explicit ordered list of
input columns into one numeric feature vector per sample.

The vector layout is fully determined by the input list: its length
always equals the number of inputs and position i always holds the value
of input i, whatever dataset the assembler is applied to.
*/
type VectorAssembler struct {
	inputs []feature.Feature
}

/*
NewVectorAssembler takes an ordered slice of input features and returns
a VectorAssembler that lays out feature vectors in that order.
Categorical inputs are expected to have been encoded to numeric codes
by a StringIndexer before assembly.
*/
func NewVectorAssembler(inputs []feature.Feature) *VectorAssembler {
	return &VectorAssembler{inputs}
}

/*
InputNames returns the names of the assembler's input columns in vector
order.
*/
func (va *VectorAssembler) InputNames() []string {
	names := make([]string, len(va.inputs))
	for i, f := range va.inputs {
		names[i] = f.Name()
	}
	return names
}

/*
AssembleSample takes a sample and returns its feature vector.
ErrMissingValue is returned if the sample has no defined value for one
of the inputs, and an error describing the problem if a value is not
numeric: callers decide whether to drop the sample or abort.
*/
func (va *VectorAssembler) AssembleSample(s dataset.Sample) ([]float64, error) {
	vector := make([]float64, len(va.inputs))
	for i, f := range va.inputs {
		v, err := s.ValueFor(f)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, ErrMissingValue
		}
		fv, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("assembling column %s: expected numeric value, got %T (has the column been indexed?)", f.Name(), v)
		}
		vector[i] = fv
	}
	return vector, nil
}

/*
Assemble takes a context, a dataset and a label feature and returns the
feature vector and label value of every sample, in dataset order. A
sample that fails assembly or has no defined label value aborts the
operation with an error.
*/
func (va *VectorAssembler) Assemble(ctx context.Context, ds dataset.Dataset, label feature.Feature) ([][]float64, []float64, error) {
	samples, err := ds.Samples(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("assembling dataset: %v", err)
	}
	vectors := make([][]float64, 0, len(samples))
	labels := make([]float64, 0, len(samples))
	for i, s := range samples {
		vector, err := va.AssembleSample(s)
		if err != nil {
			return nil, nil, fmt.Errorf("assembling sample %d: %v", i, err)
		}
		lv, err := s.ValueFor(label)
		if err != nil {
			return nil, nil, fmt.Errorf("assembling sample %d: %v", i, err)
		}
		flv, ok := lv.(float64)
		if !ok {
			return nil, nil, fmt.Errorf("assembling sample %d: no defined value for label %s", i, label.Name())
		}
		vectors = append(vectors, vector)
		labels = append(labels, flv)
	}
	return vectors, labels, nil
}
