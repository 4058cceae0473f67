package model

import (
	"encoding/json"
	"fmt"
)

type jsonTreeNode struct {
	Feature    int           `json:"f,omitempty"`
	Threshold  float64       `json:"t,omitempty"`
	Left       *jsonTreeNode `json:"l,omitempty"`
	Right      *jsonTreeNode `json:"r,omitempty"`
	Prediction float64       `json:"p"`
	Count      int           `json:"n"`
}

type jsonTree struct {
	Config      TreeConfig   `json:"config"`
	Meta        FeatureMeta  `json:"meta"`
	Importances []float64    `json:"importances"`
	Root        *jsonTreeNode `json:"root"`
}

type jsonForest struct {
	Config ForestConfig      `json:"config"`
	Meta   FeatureMeta       `json:"meta"`
	Trees  []json.RawMessage `json:"trees"`
}

/*
MarshalJSON serializes the fitted tree as a JSON object with its
config, feature meta, importances and nodes, so that unmarshalling it
yields a tree that predicts identically.
*/
func (t *DecisionTreeRegressor) MarshalJSON() ([]byte, error) {
	if t.root == nil {
		return nil, fmt.Errorf("marshalling tree: tree has not been fitted")
	}
	return json.Marshal(&jsonTree{
		Config:      t.config,
		Meta:        t.meta,
		Importances: t.importances,
		Root:        encodeNode(t.root),
	})
}

/*
UnmarshalJSON rebuilds a fitted tree from the JSON serialization
produced by MarshalJSON.
*/
func (t *DecisionTreeRegressor) UnmarshalJSON(data []byte) error {
	jt := &jsonTree{}
	err := json.Unmarshal(data, jt)
	if err != nil {
		return fmt.Errorf("unmarshalling tree: %v", err)
	}
	if jt.Root == nil {
		return fmt.Errorf("unmarshalling tree: no root node available")
	}
	t.config = jt.Config.withDefaults()
	t.meta = jt.Meta
	t.importances = jt.Importances
	t.root = decodeNode(jt.Root)
	return nil
}

/*
MarshalJSON serializes the fitted forest as a JSON object with its
config, feature meta and member trees, so that unmarshalling it yields
a forest that predicts identically.
*/
func (f *RandomForestRegressor) MarshalJSON() ([]byte, error) {
	if len(f.trees) == 0 {
		return nil, fmt.Errorf("marshalling forest: forest has not been fitted")
	}
	trees := make([]json.RawMessage, len(f.trees))
	for i, t := range f.trees {
		data, err := t.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshalling forest member %d: %v", i, err)
		}
		trees[i] = data
	}
	return json.Marshal(&jsonForest{Config: f.config, Meta: f.meta, Trees: trees})
}

/*
UnmarshalJSON rebuilds a fitted forest from the JSON serialization
produced by MarshalJSON.
*/
func (f *RandomForestRegressor) UnmarshalJSON(data []byte) error {
	jf := &jsonForest{}
	err := json.Unmarshal(data, jf)
	if err != nil {
		return fmt.Errorf("unmarshalling forest: %v", err)
	}
	if len(jf.Trees) == 0 {
		return fmt.Errorf("unmarshalling forest: no member trees available")
	}
	trees := make([]*DecisionTreeRegressor, len(jf.Trees))
	for i, raw := range jf.Trees {
		member := &DecisionTreeRegressor{}
		err = member.UnmarshalJSON(raw)
		if err != nil {
			return fmt.Errorf("unmarshalling forest member %d: %v", i, err)
		}
		trees[i] = member
	}
	f.config = jf.Config.withDefaults()
	f.meta = jf.Meta
	f.trees = trees
	return nil
}

func encodeNode(n *treeNode) *jsonTreeNode {
	if n == nil {
		return nil
	}
	return &jsonTreeNode{
		Feature:    n.feature,
		Threshold:  n.threshold,
		Left:       encodeNode(n.left),
		Right:      encodeNode(n.right),
		Prediction: n.prediction,
		Count:      n.count,
	}
}

func decodeNode(jn *jsonTreeNode) *treeNode {
	if jn == nil {
		return nil
	}
	n := &treeNode{
		feature:    jn.Feature,
		threshold:  jn.Threshold,
		left:       decodeNode(jn.Left),
		right:      decodeNode(jn.Right),
		prediction: jn.Prediction,
		count:      jn.Count,
	}
	n.leaf = n.left == nil && n.right == nil
	return n
}
