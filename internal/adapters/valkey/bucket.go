package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/diavlos/boatzone/internal/gateway"
)

const (
	bucketRegistryKey = "gw:buckets"
	bucketKeyPrefix   = "gw:bucket:"
)

// BucketStore implements gateway.BucketStore on Valkey so cached assets
// survive restarts and are shared across API instances. Each bucket is one
// hash keyed by request path; bucket names live in a registry set.
type BucketStore struct {
	client valkey.Client
}

// NewBucketStore wraps an existing cache connection.
func NewBucketStore(cache *Cache) *BucketStore {
	return &BucketStore{client: cache.Client()}
}

func (s *BucketStore) Open(ctx context.Context, name string) (gateway.Bucket, error) {
	cmd := s.client.Do(ctx, s.client.B().Sadd().Key(bucketRegistryKey).Member(name).Build())
	if err := cmd.Error(); err != nil {
		return nil, fmt.Errorf("register bucket %s: %w", name, err)
	}
	return &bucket{client: s.client, key: bucketKeyPrefix + name}, nil
}

func (s *BucketStore) Names(ctx context.Context) ([]string, error) {
	cmd := s.client.Do(ctx, s.client.B().Smembers().Key(bucketRegistryKey).Build())
	if err := cmd.Error(); err != nil {
		return nil, err
	}
	return cmd.AsStrSlice()
}

func (s *BucketStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(bucketKeyPrefix+name).Build()).Error(); err != nil {
		return err
	}
	return s.client.Do(ctx, s.client.B().Srem().Key(bucketRegistryKey).Member(name).Build()).Error()
}

type bucket struct {
	client valkey.Client
	key    string
}

func (b *bucket) Match(ctx context.Context, key string) (*gateway.Response, bool, error) {
	cmd := b.client.Do(ctx, b.client.B().Hget().Key(b.key).Field(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	data, err := cmd.AsBytes()
	if err != nil {
		return nil, false, err
	}
	var res gateway.Response
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, fmt.Errorf("decode cached response: %w", err)
	}
	return &res, true, nil
}

func (b *bucket) Put(ctx context.Context, key string, res *gateway.Response) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}
	return b.client.Do(ctx,
		b.client.B().Hset().Key(b.key).FieldValue().FieldValue(key, string(data)).Build(),
	).Error()
}
