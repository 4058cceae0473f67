/*
Package redisstore provides a pipeline-model store backed by a redis
DB, so that trained models can be shared by the processes that train
them and the processes that serve predictions with them.

Models are stored as opaque byte payloads under keys built by joining
a configurable prefix and the model name with a colon.
*/
package redisstore

import (
	"context"
	"fmt"

	"gopkg.in/redis.v5"
)

/*
ErrModelNotFound is the error returned when a model is requested
under a name no model has been saved with.
*/
const ErrModelNotFound = Error("model not found")

/*
Error is an error a redis model store can return
*/
type Error string

func (e Error) Error() string {
	return string(e)
}

/*
Store represents a collection of serialized models indexed by name
*/
type Store interface {
	// Save stores the given payload under the given model name,
	// replacing any previous payload saved under that name. It
	// returns an error if the payload cannot be stored.
	Save(ctx context.Context, name string, data []byte) error

	// Load returns the payload saved under the given model name,
	// ErrModelNotFound if no model has been saved under that name,
	// or another error if the payload cannot be retrieved.
	Load(ctx context.Context, name string) ([]byte, error)

	// Delete removes the payload saved under the given model name.
	// Deleting a name with no saved model is not an error.
	Delete(ctx context.Context, name string) error
}

type redisStore struct {
	rc     *redis.Client
	prefix string
}

/*
New takes a redis client and a key prefix and returns a Store backed
by the redis DB the client connects to.
*/
func New(rc *redis.Client, prefix string) Store {
	return &redisStore{rc, prefix}
}

func (rs *redisStore) Save(ctx context.Context, name string, data []byte) error {
	redisID := rs.keyFor(name)
	_, err := rs.rc.Set(redisID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("saving model %q in redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Load(ctx context.Context, name string) ([]byte, error) {
	redisID := rs.keyFor(name)
	data, err := rs.rc.Get(redisID).Result()
	if err == redis.Nil {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading model %q from redis: %v", redisID, err)
	}
	return []byte(data), nil
}

func (rs *redisStore) Delete(ctx context.Context, name string) error {
	redisID := rs.keyFor(name)
	_, err := rs.rc.Del(redisID).Result()
	if err != nil {
		return fmt.Errorf("deleting model %q from redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) keyFor(name string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, name)
}
