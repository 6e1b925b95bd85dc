package orclient

import (
	"context"
	"sync"
	"time"
)

// ModelCache caches the model catalogue for a fixed TTL.
type ModelCache struct {
	mu        sync.RWMutex
	models    []*ModelInfo
	fetchedAt time.Time
	ttl       time.Duration
	client    *Client
}

// NewModelCache creates a new model cache
func NewModelCache(client *Client, ttl time.Duration) *ModelCache {
	return &ModelCache{
		ttl:    ttl,
		client: client,
	}
}

// GetModelList gets the model list from cache or fetches it
func (mc *ModelCache) GetModelList(ctx context.Context) ([]*ModelInfo, error) {
	mc.mu.RLock()
	models, fetchedAt := mc.models, mc.fetchedAt
	mc.mu.RUnlock()

	if models != nil && time.Since(fetchedAt) < mc.ttl {
		return models, nil
	}

	models, err := mc.client.listModelsUncached(ctx)
	if err != nil {
		return nil, err
	}

	mc.mu.Lock()
	mc.models = models
	mc.fetchedAt = time.Now()
	mc.mu.Unlock()

	return models, nil
}

// ClearCache drops the cached list
func (mc *ModelCache) ClearCache() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.models = nil
}
