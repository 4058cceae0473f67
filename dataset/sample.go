package dataset

import (
	"fmt"

	"github.com/pbanos/grove/feature"
)

/*
Sample represents a row of a tabular dataset.

Its ValueFor method returns the value of the sample corresponding to the
feature passed as parameter, or nil if the sample does not define a
value for it.
*/
type Sample interface {
	ValueFor(feature.Feature) (interface{}, error)
}

type sample struct {
	featureValues map[string]interface{}
}

/*
NewSample takes a map of feature string names to values and returns a
sample holding them.
*/
func NewSample(featureValues map[string]interface{}) Sample {
	return &sample{featureValues}
}

func (s *sample) ValueFor(f feature.Feature) (interface{}, error) {
	return s.featureValues[f.Name()], nil
}

func (s *sample) String() string {
	return fmt.Sprintf("[%v]", s.featureValues)
}
