package feature

import "fmt"

/*
Columns classifies the features of a schema by the role they play when
preparing data to train a regression model: categorical inputs,
continuous inputs and the label to predict.

The order of the categorical and continuous slices matches the order in
which the features were declared on the schema, so that the same schema
always yields the same input layout.
*/
type Columns struct {
	Categorical []*CategoricalFeature
	Continuous  []*ContinuousFeature
	Label       *ContinuousFeature
}

/*
SplitColumns takes a slice of features in their declared order and the
name of the label feature and returns the Columns for the schema or an
error.

Every categorical feature becomes a categorical input and every
continuous feature other than the label becomes a continuous input. The
label is excluded from both lists and must be declared as a continuous
feature on the schema, otherwise an error is returned.
*/
func SplitColumns(features []Feature, label string) (*Columns, error) {
	cols := &Columns{}
	for _, f := range features {
		if f.Name() == label {
			lf, ok := f.(*ContinuousFeature)
			if !ok {
				return nil, fmt.Errorf("label feature %s must be continuous, got %T", label, f)
			}
			cols.Label = lf
			continue
		}
		switch ft := f.(type) {
		case *CategoricalFeature:
			cols.Categorical = append(cols.Categorical, ft)
		case *ContinuousFeature:
			cols.Continuous = append(cols.Continuous, ft)
		}
	}
	if cols.Label == nil {
		return nil, fmt.Errorf("label feature %s is not defined on the schema", label)
	}
	return cols, nil
}

/*
InputNames returns the names of the input features in the order their
values are laid out on assembled feature vectors: categorical inputs
first, then continuous inputs, both in schema order.
*/
func (c *Columns) InputNames() []string {
	names := make([]string, 0, len(c.Categorical)+len(c.Continuous))
	for _, f := range c.Categorical {
		names = append(names, f.Name())
	}
	for _, f := range c.Continuous {
		names = append(names, f.Name())
	}
	return names
}

/*
CategoricalNames returns the names of the categorical input features in
schema order.
*/
func (c *Columns) CategoricalNames() []string {
	names := make([]string, 0, len(c.Categorical))
	for _, f := range c.Categorical {
		names = append(names, f.Name())
	}
	return names
}
