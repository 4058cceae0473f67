package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature"
)

/*
StringIndexer encodes the values of a set of categorical columns as
small non-negative numeric codes.

The encoding tables are built once by fitting the indexer on a training
dataset and are read-only afterwards: applying the indexer to any
dataset reuses them identically. Values not observed during fitting are
handled according to the indexer's UnseenPolicy.
*/
type StringIndexer struct {
	columns []*feature.CategoricalFeature
	policy  UnseenPolicy
	tables  map[string]map[string]float64
}

/*
NewStringIndexer takes a slice of categorical features and an
UnseenPolicy and returns a StringIndexer that will encode the values of
those features.
*/
func NewStringIndexer(columns []*feature.CategoricalFeature, policy UnseenPolicy) *StringIndexer {
	return &StringIndexer{columns: columns, policy: policy}
}

/*
RestoreStringIndexer takes a slice of categorical features, an
UnseenPolicy and a map from column name to category values in code
order, and returns a fitted StringIndexer that uses those encoding
tables. It is meant to rebuild indexers from persisted models.
*/
func RestoreStringIndexer(columns []*feature.CategoricalFeature, policy UnseenPolicy, mappings map[string][]string) *StringIndexer {
	si := &StringIndexer{columns: columns, policy: policy, tables: make(map[string]map[string]float64)}
	for _, c := range columns {
		table := make(map[string]float64)
		for code, value := range mappings[c.Name()] {
			table[value] = float64(code)
		}
		si.tables[c.Name()] = table
	}
	return si
}

/*
Fit takes a context and a training dataset and builds an encoding table
for each of the indexer's columns: every distinct value observed on the
dataset is assigned a code starting at 0, in descending order of
frequency with ties broken by lexicographic value order, so that fitting
on the same dataset always produces the same tables.

Fitting an indexer with no columns is a no-op, not an error. Fitting
replaces any previously built tables.
*/
func (si *StringIndexer) Fit(ctx context.Context, ds dataset.Dataset) error {
	tables := make(map[string]map[string]float64)
	samples, err := ds.Samples(ctx)
	if err != nil {
		return fmt.Errorf("fitting indexer: %v", err)
	}
	for _, c := range si.columns {
		counts := make(map[string]int)
		for _, s := range samples {
			v, err := s.ValueFor(c)
			if err != nil {
				return fmt.Errorf("fitting indexer on column %s: %v", c.Name(), err)
			}
			if v == nil {
				continue
			}
			vs, ok := v.(string)
			if !ok {
				return fmt.Errorf("fitting indexer on column %s: expected string value, got %T", c.Name(), v)
			}
			counts[vs]++
		}
		values := make([]string, 0, len(counts))
		for v := range counts {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool {
			if counts[values[i]] != counts[values[j]] {
				return counts[values[i]] > counts[values[j]]
			}
			return values[i] < values[j]
		})
		table := make(map[string]float64, len(values))
		for code, v := range values {
			table[v] = float64(code)
		}
		tables[c.Name()] = table
	}
	si.tables = tables
	return nil
}

/*
Fitted returns a boolean indicating whether the indexer has already
been fitted on a dataset.
*/
func (si *StringIndexer) Fitted() bool {
	return si.tables != nil
}

/*
Apply takes a context and a dataset and returns a dataset in which
every indexed column of every sample holds its numeric code instead of
its category value, along with the number of samples dropped because of
values unseen during fitting.

Under the SkipUnseen policy samples with unseen or undefined values for
an indexed column are silently excluded from the result; under
FailUnseen the first such sample aborts the operation with an error.
*/
func (si *StringIndexer) Apply(ctx context.Context, ds dataset.Dataset) (dataset.Dataset, int, error) {
	if !si.Fitted() {
		return nil, 0, ErrNotFitted
	}
	samples, err := ds.Samples(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("applying indexer: %v", err)
	}
	indexed := make([]dataset.Sample, 0, len(samples))
	var dropped int
	for i, s := range samples {
		is, err := si.ApplyToSample(s)
		if err == ErrUnseenCategory && si.policy == SkipUnseen {
			dropped++
			continue
		}
		if err != nil {
			return nil, dropped, fmt.Errorf("applying indexer to sample %d: %v", i, err)
		}
		indexed = append(indexed, is)
	}
	return dataset.New(indexed), dropped, nil
}

/*
ApplyToSample takes a sample and returns a sample in which every
indexed column holds its numeric code instead of its category value.
ErrUnseenCategory is returned when the sample's value for an indexed
column is undefined or was not observed during fitting, whatever the
indexer's policy: callers decide whether to drop the sample or abort.
*/
func (si *StringIndexer) ApplyToSample(s dataset.Sample) (dataset.Sample, error) {
	if !si.Fitted() {
		return nil, ErrNotFitted
	}
	codes := make(map[string]float64, len(si.columns))
	for _, c := range si.columns {
		v, err := s.ValueFor(c)
		if err != nil {
			return nil, err
		}
		vs, ok := v.(string)
		if !ok {
			return nil, ErrUnseenCategory
		}
		code, ok := si.tables[c.Name()][vs]
		if !ok {
			return nil, ErrUnseenCategory
		}
		codes[c.Name()] = code
	}
	return &indexedSample{s, codes}, nil
}

/*
Cardinality takes a column name and returns the number of distinct
values its encoding table maps, or 0 if the column is not indexed.
*/
func (si *StringIndexer) Cardinality(column string) int {
	return len(si.tables[column])
}

/*
Policy returns the indexer's UnseenPolicy.
*/
func (si *StringIndexer) Policy() UnseenPolicy {
	return si.policy
}

/*
Mapping takes a column name and returns the category values of its
encoding table in code order, or nil if the column is not indexed. The
returned slice together with RestoreStringIndexer allows rebuilding the
indexer.
*/
func (si *StringIndexer) Mapping(column string) []string {
	table := si.tables[column]
	if table == nil {
		return nil
	}
	values := make([]string, len(table))
	for v, code := range table {
		values[int(code)] = v
	}
	return values
}

type indexedSample struct {
	dataset.Sample
	codes map[string]float64
}

func (is *indexedSample) ValueFor(f feature.Feature) (interface{}, error) {
	if code, ok := is.codes[f.Name()]; ok {
		return code, nil
	}
	return is.Sample.ValueFor(f)
}
