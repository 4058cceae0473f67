package main

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pbanos/grove"
	"github.com/pbanos/grove/feature"
	"github.com/pbanos/grove/json"
	"github.com/pbanos/grove/redisstore"
	"gopkg.in/redis.v5"
)

const redisModelKeyPrefix = "grove:models"

/*
saveModel serializes the given pipeline model onto the given location:
a redis URL of the form redis://[:password@]host:port/db/name, the
path to a file or, when the location is empty, STDOUT.
*/
func saveModel(ctx context.Context, rcc *rootCmdConfig, location string, pm *grove.PipelineModel) error {
	if strings.HasPrefix(location, "redis://") {
		store, name, err := redisModelStore(location)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		err = json.WritePipelineModel(ctx, pm, &buf)
		if err != nil {
			return err
		}
		rcc.Logf("Saving model %q on redis DB...", name)
		return store.Save(ctx, name, buf.Bytes())
	}
	var f *os.File
	if location == "" {
		f = os.Stdout
	} else {
		rcc.Logf("Creating %s to dump model...", location)
		var err error
		f, err = os.Create(location)
		if err != nil {
			return fmt.Errorf("creating %s: %v", location, err)
		}
		defer f.Close()
	}
	return json.WritePipelineModel(ctx, pm, f)
}

/*
loadModel parses a pipeline model from the given location: a redis URL
of the form redis://[:password@]host:port/db/name or the path to a
file.
*/
func loadModel(ctx context.Context, rcc *rootCmdConfig, location string, features []feature.Feature) (*grove.PipelineModel, error) {
	if strings.HasPrefix(location, "redis://") {
		store, name, err := redisModelStore(location)
		if err != nil {
			return nil, err
		}
		rcc.Logf("Loading model %q from redis DB...", name)
		data, err := store.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		return json.ReadPipelineModel(ctx, features, bytes.NewReader(data))
	}
	rcc.Logf("Opening %s to read model...", location)
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("opening model at %s: %v", location, err)
	}
	defer f.Close()
	return json.ReadPipelineModel(ctx, features, f)
}

func redisModelStore(location string) (redisstore.Store, string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, "", fmt.Errorf("parsing redis model URL %s: %v", location, err)
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) != 2 || parts[1] == "" {
		return nil, "", fmt.Errorf("parsing redis model URL %s: path must have the form /db/name", location)
	}
	db, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, "", fmt.Errorf("parsing redis model URL %s: invalid DB number %q", location, parts[0])
	}
	var password string
	if u.User != nil {
		password, _ = u.User.Password()
	}
	rc := redis.NewClient(&redis.Options{Addr: u.Host, Password: password, DB: db})
	return redisstore.New(rc, redisModelKeyPrefix), parts[1], nil
}
