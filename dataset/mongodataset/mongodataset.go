/*
Package mongodataset provides an implementation of dataset.Dataset that
uses a MongoDB database as backend.
*/
package mongodataset

import (
	"context"
	"fmt"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/feature"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const samplesCollectionName = "samples"

/*
Dataset is a dataset.Dataset to which samples can be added and from
which samples can be sequentially read.
*/
type Dataset interface {
	dataset.Dataset
	Write(context.Context, []dataset.Sample) (int, error)
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
}

type mongoDataset struct {
	session  *mgo.Session
	features []feature.Feature
}

/*
Open takes a MongoDB database session and a slice of feature.Feature and
returns a Dataset that works on the samples collection of the default
database for that session.
*/
func Open(ctx context.Context, session *mgo.Session, features []feature.Feature) (Dataset, error) {
	return &mongoDataset{session, features}, nil
}

func (mds *mongoDataset) Count(ctx context.Context) (int, error) {
	count, err := mds.samplesCollection().Count()
	if err != nil {
		return 0, fmt.Errorf("counting samples: %v", err)
	}
	return count, nil
}

func (mds *mongoDataset) Samples(ctx context.Context) ([]dataset.Sample, error) {
	var samples []dataset.Sample
	count, err := mds.Count(ctx)
	if err == nil {
		samples = make([]dataset.Sample, 0, count)
	}
	sampleStream, errStream := mds.Read(ctx)
	for s := range sampleStream {
		samples = append(samples, s)
	}
	err = <-errStream
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (mds *mongoDataset) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	for i, s := range samples {
		doc := bson.M{}
		for _, f := range mds.features {
			v, err := s.ValueFor(f)
			if err != nil {
				return i, err
			}
			if v != nil {
				doc[f.Name()] = v
			}
		}
		err := mds.samplesCollection().Insert(doc)
		if err != nil {
			return i, fmt.Errorf("writing sample %d: %v", i, err)
		}
	}
	return len(samples), nil
}

func (mds *mongoDataset) Read(ctx context.Context) (<-chan dataset.Sample, <-chan error) {
	sampleStream := make(chan dataset.Sample)
	errStream := make(chan error)
	go func() {
		iter := mds.samplesCollection().Find(nil).Sort("_id").Iter()
		var doc bson.M
		var err error
		for iter.Next(&doc) {
			var s dataset.Sample
			s, err = mds.sampleFromDoc(doc)
			if err != nil {
				break
			}
			select {
			case <-ctx.Done():
				err = ctx.Err()
			case sampleStream <- s:
				doc = bson.M{}
				continue
			}
			break
		}
		if err == nil {
			err = iter.Err()
		}
		iter.Close()
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

func (mds *mongoDataset) sampleFromDoc(doc bson.M) (dataset.Sample, error) {
	featureValues := make(map[string]interface{})
	for _, f := range mds.features {
		v, ok := doc[f.Name()]
		if !ok || v == nil {
			continue
		}
		if fv, isInt := v.(int); isInt {
			v = float64(fv)
		}
		if ok, err := f.Valid(v); !ok {
			return nil, fmt.Errorf("reading sample: %v", err)
		}
		featureValues[f.Name()] = v
	}
	return dataset.NewSample(featureValues), nil
}

func (mds *mongoDataset) samplesCollection() *mgo.Collection {
	return mds.session.DB("").C(samplesCollectionName)
}
