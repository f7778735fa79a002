package gateway

import (
	"context"
	"sync"
)

// Bucket is a named key→response store. Keys are request paths. Put/Match on
// a single key are atomic; concurrent interceptions share no other state.
type Bucket interface {
	Match(ctx context.Context, key string) (*Response, bool, error)
	Put(ctx context.Context, key string, res *Response) error
}

// BucketStore manages versioned buckets. At most one bucket is current at a
// time; Activate deletes the rest.
type BucketStore interface {
	Open(ctx context.Context, name string) (Bucket, error)
	Names(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// MemoryStore is an in-process BucketStore. It is the default when no shared
// cache is configured, and the store used by the router tests.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]*memoryBucket
}

// NewMemoryStore creates an empty in-memory bucket store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*memoryBucket)}
}

func (s *MemoryStore) Open(ctx context.Context, name string) (Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[name]
	if !ok {
		b = &memoryBucket{entries: make(map[string]*Response)}
		s.buckets[name] = b
	}
	return b, nil
}

func (s *MemoryStore) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	return names, nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, name)
	return nil
}

type memoryBucket struct {
	mu      sync.RWMutex
	entries map[string]*Response
}

func (b *memoryBucket) Match(ctx context.Context, key string) (*Response, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res, ok := b.entries[key]
	return res, ok, nil
}

func (b *memoryBucket) Put(ctx context.Context, key string, res *Response) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = res
	return nil
}
