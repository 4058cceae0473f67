package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pbanos/grove/dataset"
	"github.com/pbanos/grove/dataset/csv"
	"github.com/pbanos/grove/dataset/mongodataset"
	"github.com/pbanos/grove/dataset/sqldataset"
	"github.com/pbanos/grove/dataset/sqldataset/pgadapter"
	"github.com/pbanos/grove/dataset/sqldataset/sqlite3adapter"
	"github.com/pbanos/grove/feature"
	mgo "gopkg.in/mgo.v2"
)

/*
openDataset opens the dataset at the given location for reading: a
PostgreSQL connection URL, a MongoDB connection URL, the path to an
SQLite3 (.db) file, the path to a CSV file or, when the location is
empty, STDIN interpreted as CSV.
*/
func openDataset(ctx context.Context, rcc *rootCmdConfig, location string, features []feature.Feature, maxDBConns int) (dataset.Dataset, error) {
	if location == "" {
		rcc.Logf("Reading dataset from STDIN...")
		return csv.ReadDataset(os.Stdin, features)
	}
	if strings.HasPrefix(location, "postgresql://") {
		rcc.Logf("Creating PostgreSQL adapter for url %s to read dataset...", location)
		adapter, err := pgadapter.New(location)
		if err != nil {
			return nil, err
		}
		return sqldataset.Open(ctx, adapter, features)
	}
	if strings.HasPrefix(location, "mongodb://") {
		rcc.Logf("Dialing %s to read dataset...", location)
		session, err := mgo.Dial(location)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %v", location, err)
		}
		return mongodataset.Open(ctx, session, features)
	}
	if strings.HasSuffix(location, ".db") {
		rcc.Logf("Creating SQLite3 adapter for file %s to read dataset...", location)
		adapter, err := sqlite3adapter.New(location, maxDBConns)
		if err != nil {
			return nil, err
		}
		return sqldataset.Open(ctx, adapter, features)
	}
	rcc.Logf("Opening %s to read dataset...", location)
	return csv.ReadDatasetFromFilePath(location, features)
}

/*
writeCSVDataset dumps the given dataset as CSV onto the file at the
given path, or onto STDOUT when the path is empty.
*/
func writeCSVDataset(ctx context.Context, rcc *rootCmdConfig, path string, ds dataset.Dataset, features []feature.Feature) error {
	var f *os.File
	if path == "" {
		rcc.Logf("Using STDOUT to dump dataset...")
		f = os.Stdout
	} else {
		rcc.Logf("Creating %s to dump dataset...", path)
		var err error
		f, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %v", path, err)
		}
		defer f.Close()
	}
	return csv.WriteDataset(ctx, f, ds, features)
}
