package feature

import "fmt"

/*
Feature represents a column of a tabular dataset that can be observed
on every sample.
*/
type Feature interface {
	Name() string
	Valid(interface{}) (bool, error)
}

/*
CategoricalFeature represents a column that can only take a string value
among a finite set of categories.
*/
type CategoricalFeature struct {
	name       string
	categories []string
}

/*
ContinuousFeature represents a column that takes a numeric value.
*/
type ContinuousFeature struct {
	name string
}

/*
NewCategoricalFeature takes a name string and a slice of category strings
and returns a categorical feature with the given name and categories.
*/
func NewCategoricalFeature(name string, categories []string) *CategoricalFeature {
	return &CategoricalFeature{name, categories}
}

/*
NewContinuousFeature takes a name string and returns a continuous feature
with the given name.
*/
func NewContinuousFeature(name string) *ContinuousFeature {
	return &ContinuousFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (cf *CategoricalFeature) Name() string {
	return cf.name
}

/*
Valid receives an interface value and returns a boolean and an error.
When the value is nil or a string included in the feature's categories,
the method returns true and nil. Otherwise it returns false and an error
describing the reason.
*/
func (cf *CategoricalFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return true, nil
	}
	vs, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("categorical feature %s expects string value, got %T value", cf.Name(), value)
	}
	for _, c := range cf.categories {
		if c == vs {
			return true, nil
		}
	}
	return false, fmt.Errorf("categorical feature %s got unknown value %s", cf.Name(), vs)
}

/*
Categories returns a string slice with the values the feature can take
*/
func (cf *CategoricalFeature) Categories() []string {
	return cf.categories
}

func (cf *CategoricalFeature) String() string {
	return cf.name
}

/*
Name returns a string with the name of the feature
*/
func (nf *ContinuousFeature) Name() string {
	return nf.name
}

/*
Valid receives an interface value and returns a boolean and an error. When
the value is nil or a float64 it returns true and nil, otherwise it returns
false and an error describing the reason.
*/
func (nf *ContinuousFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return true, nil
	}
	_, ok := value.(float64)
	if !ok {
		return false, fmt.Errorf("continuous feature %s expects float64 value, got %T value", nf.Name(), value)
	}
	return true, nil
}

func (nf *ContinuousFeature) String() string {
	return nf.name
}
