/*
Package tuning provides hyperparameter selection for regression
estimators: an explicit parameter grid and a k-fold cross validator
that evaluates every grid point over every fold, averages the scores
and refits the best configuration on the whole training set.

Grid-point and fold evaluations are independent of each other: the
cross validator runs them on a bounded pool of workers, and the
selected configuration and its average score are invariant to the
parallelism degree used.
*/
package tuning

import (
	"sort"

	"github.com/pbanos/grove/model"
)

/*
ErrEmptyGrid is the error returned when building or searching over a
grid with no parameter candidates.
*/
const ErrEmptyGrid = model.ConfigError("hyperparameter grid has no candidate values")

/*
ParamMap assigns a candidate value to each named hyperparameter of a
grid point. Integer hyperparameters are carried as float64 values and
truncated by the estimator builder consuming the map.
*/
type ParamMap map[string]float64

/*
ParamNames returns the names of the map's hyperparameters in
lexicographic order.
*/
func (pm ParamMap) ParamNames() []string {
	names := make([]string, 0, len(pm))
	for name := range pm {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

/*
ParamGridBuilder accumulates named hyperparameters with their explicit
candidate value lists and builds the cross product of all of them.
*/
type ParamGridBuilder struct {
	names  []string
	values map[string][]float64
}

/*
NewParamGridBuilder returns an empty ParamGridBuilder.
*/
func NewParamGridBuilder() *ParamGridBuilder {
	return &ParamGridBuilder{values: make(map[string][]float64)}
}

/*
Add takes a hyperparameter name and its candidate values and adds them
to the grid, returning the builder to allow chaining. Adding values for
an already added name appends to its candidates.
*/
func (b *ParamGridBuilder) Add(name string, values ...float64) *ParamGridBuilder {
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = append(b.values[name], values...)
	return b
}

/*
Build returns the cross product of all added candidate values as a
slice of ParamMap, or ErrEmptyGrid if no candidates were added or some
added name has an empty candidate list.

The order of the grid points is deterministic: the candidates of the
last added name vary fastest.
*/
func (b *ParamGridBuilder) Build() ([]ParamMap, error) {
	if len(b.names) == 0 {
		return nil, ErrEmptyGrid
	}
	for _, name := range b.names {
		if len(b.values[name]) == 0 {
			return nil, ErrEmptyGrid
		}
	}
	grid := []ParamMap{{}}
	for _, name := range b.names {
		next := make([]ParamMap, 0, len(grid)*len(b.values[name]))
		for _, pm := range grid {
			for _, v := range b.values[name] {
				point := make(ParamMap, len(pm)+1)
				for n, pv := range pm {
					point[n] = pv
				}
				point[name] = v
				next = append(next, point)
			}
		}
		grid = next
	}
	return grid, nil
}
