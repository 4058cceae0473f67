/*
Package json provides methods to serialize fitted pipeline models as
JSON documents and parse them back.

A pipeline model is serialized as a JSON object with the following
fields:
  - "label": the name of the label feature the pipeline predicts
  - "policy": the unseen-category policy of the pipeline's indexer
  - "indexer": an object mapping each indexed column to its category
    values in code order
  - "estimator": an object with a "kind" field, "tree" or "forest",
    and a "model" field with the estimator's own serialization

Parsing requires the features of the schema the model was trained on,
the same way they were given when training.
*/
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pbanos/grove"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/model"
	"github.com/pbanos/grove/pipeline"
)

const (
	treeKind   = "tree"
	forestKind = "forest"
)

type jsonPipelineModel struct {
	Label     string              `json:"label"`
	Policy    string              `json:"policy"`
	Indexer   map[string][]string `json:"indexer"`
	Estimator jsonEstimator       `json:"estimator"`
}

type jsonEstimator struct {
	Kind  string          `json:"kind"`
	Model json.RawMessage `json:"model"`
}

/*
WritePipelineModel takes a context, a fitted pipeline model and an
io.Writer and serializes the model as JSON onto the writer. An error is
returned if the model's estimator is of an unknown kind or cannot be
serialized, or if writing fails.
*/
func WritePipelineModel(ctx context.Context, pm *grove.PipelineModel, w io.Writer) error {
	var kind string
	switch pm.Estimator.(type) {
	case *model.DecisionTreeRegressor:
		kind = treeKind
	case *model.RandomForestRegressor:
		kind = forestKind
	default:
		return fmt.Errorf("serializing pipeline model: unknown estimator type %T", pm.Estimator)
	}
	estData, err := json.Marshal(pm.Estimator)
	if err != nil {
		return fmt.Errorf("serializing pipeline model: %v", err)
	}
	mappings := make(map[string][]string)
	for _, name := range pm.Columns.CategoricalNames() {
		mappings[name] = pm.Indexer.Mapping(name)
	}
	jpm := &jsonPipelineModel{
		Label:     pm.Label.Name(),
		Policy:    string(pm.Indexer.Policy()),
		Indexer:   mappings,
		Estimator: jsonEstimator{Kind: kind, Model: estData},
	}
	err = json.NewEncoder(w).Encode(jpm)
	if err != nil {
		return fmt.Errorf("serializing pipeline model: %v", err)
	}
	return nil
}

/*
ReadPipelineModel takes a context, a slice of features describing the
schema the model was trained on and an io.Reader, and parses a pipeline
model from the JSON contents of the reader. An error is returned if the
JSON cannot be read or parsed, if its label feature is not declared on
the given features or if its estimator kind is unknown.
*/
func ReadPipelineModel(ctx context.Context, features []feature.Feature, r io.Reader) (*grove.PipelineModel, error) {
	jpm := &jsonPipelineModel{}
	err := json.NewDecoder(r).Decode(jpm)
	if err != nil {
		return nil, fmt.Errorf("parsing pipeline model: %v", err)
	}
	policy, err := pipeline.ParseUnseenPolicy(jpm.Policy)
	if err != nil {
		return nil, fmt.Errorf("parsing pipeline model: %v", err)
	}
	var est model.Estimator
	switch jpm.Estimator.Kind {
	case treeKind:
		t := &model.DecisionTreeRegressor{}
		err = json.Unmarshal(jpm.Estimator.Model, t)
		est = t
	case forestKind:
		f := &model.RandomForestRegressor{}
		err = json.Unmarshal(jpm.Estimator.Model, f)
		est = f
	default:
		return nil, fmt.Errorf("parsing pipeline model: unknown estimator kind %q", jpm.Estimator.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing pipeline model: %v", err)
	}
	pm, err := grove.Restore(features, jpm.Label, policy, jpm.Indexer, est)
	if err != nil {
		return nil, fmt.Errorf("parsing pipeline model: %v", err)
	}
	return pm, nil
}
