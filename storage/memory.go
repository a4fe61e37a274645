package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryGateway is an in-process Gateway used by tests and local development.
type MemoryGateway struct {
	mu      sync.RWMutex
	objects map[string]map[string][]byte // bucket -> key -> payload
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{objects: make(map[string]map[string][]byte)}
}

// Seed places an object directly, bypassing Put's reader plumbing.
func (g *MemoryGateway) Seed(bucket, key string, payload []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bucket(bucket)[key] = payload
}

// Get returns an object's payload, or false if it does not exist.
func (g *MemoryGateway) Get(bucket, key string) ([]byte, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	payload, ok := g.objects[bucket][key]
	return payload, ok
}

func (g *MemoryGateway) List(_ context.Context, bucket, prefix string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var keys []string
	for key := range g.objects[bucket] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (g *MemoryGateway) Copy(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	payload, ok := g.objects[srcBucket][srcKey]
	if !ok {
		return fmt.Errorf("object %s/%s does not exist", srcBucket, srcKey)
	}
	copied := make([]byte, len(payload))
	copy(copied, payload)
	g.bucket(dstBucket)[dstKey] = copied
	return nil
}

func (g *MemoryGateway) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	keys, err := g.List(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	return g.DeleteObjects(ctx, bucket, keys)
}

func (g *MemoryGateway) DeleteObjects(_ context.Context, bucket string, keys []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, key := range keys {
		delete(g.objects[bucket], key)
	}
	return nil
}

func (g *MemoryGateway) Put(_ context.Context, bucket, key string, reader io.Reader, _ int64, _ string) error {
	payload, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.bucket(bucket)[key] = payload
	return nil
}

func (g *MemoryGateway) bucket(name string) map[string][]byte {
	b, ok := g.objects[name]
	if !ok {
		b = make(map[string][]byte)
		g.objects[name] = b
	}
	return b
}
