// Package querycache holds ResultCache implementations for dbext.
package querycache

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/sllt/sqlkit/pkg/sqlkit/dbext"
)

const defaultPrefix = "sqlkit:cache:"

//nolint:gochecknoinits // result values travel as interfaces
func init() {
	gob.Register(time.Time{})
}

// Redis stores gob encoded result sets under prefix+key.
type Redis struct {
	client redis.Cmdable
	prefix string
}

// NewRedis returns a cache over client. An empty prefix uses "sqlkit:cache:".
func NewRedis(client redis.Cmdable, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (*dbext.ResultSet, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, errors.Wrapf(err, "get %s", key)
	}

	var rs dbext.ResultSet

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rs); err != nil {
		return nil, false, errors.Wrapf(err, "decode %s", key)
	}

	return &rs, true, nil
}

// Set stores rs for ttl. A zero ttl keeps the entry until it is evicted.
func (r *Redis) Set(ctx context.Context, key string, rs *dbext.ResultSet, ttl time.Duration) error {
	var buf bytes.Buffer

	if err := gob.NewEncoder(&buf).Encode(rs); err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}

	return errors.Wrapf(r.client.Set(ctx, r.prefix+key, buf.Bytes(), ttl).Err(), "set %s", key)
}

// Invalidate drops the cached entry for key.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	return errors.Wrapf(r.client.Del(ctx, r.prefix+key).Err(), "delete %s", key)
}
