package audio

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ResourceCache fetches one audio resource and keeps its decoded form.
// Concurrent loads share a single fetch; a failed load caches nothing.
type ResourceCache struct {
	path     string
	fetcher  Fetcher
	registry *DecoderRegistry
	logger   *slog.Logger

	mu     sync.RWMutex
	buffer *AudioData

	group singleflight.Group
}

// NewResourceCache creates a cache for the resource at path. A nil registry
// means NewDefaultRegistry.
func NewResourceCache(path string, fetcher Fetcher, registry *DecoderRegistry, logger *slog.Logger) *ResourceCache {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceCache{
		path:     path,
		fetcher:  fetcher,
		registry: registry,
		logger:   logger,
	}
}

// Path returns the resource path this cache loads.
func (c *ResourceCache) Path() string {
	return c.path
}

// Cached returns the decoded buffer, or nil when nothing is loaded yet.
func (c *ResourceCache) Cached() *AudioData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buffer
}

// EnsureLoaded returns the cached buffer, fetching and decoding it on the
// first successful call. The fetch is not cancelled when ctx is, since other
// callers may be waiting on it.
func (c *ResourceCache) EnsureLoaded(ctx context.Context) (*AudioData, error) {
	if buf := c.Cached(); buf != nil {
		return buf, nil
	}

	v, err, shared := c.group.Do(c.path, func() (any, error) {
		// a flight that finished between Cached and Do already stored it
		if buf := c.Cached(); buf != nil {
			return buf, nil
		}
		return c.load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("audio load shared with concurrent caller", "path", c.path)
	}
	return v.(*AudioData), nil
}

func (c *ResourceCache) load(ctx context.Context) (*AudioData, error) {
	c.logger.Debug("fetching audio resource", "path", c.path)

	raw, err := c.fetcher.Fetch(ctx, c.path)
	if err != nil {
		if !IsFetchError(err) {
			err = &ResourceFetchError{Path: c.path, Err: err}
		}
		return nil, err
	}

	buf, err := c.registry.DecodeBytes(c.path, raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.buffer = buf
	c.mu.Unlock()

	c.logger.Info("audio buffer preloaded",
		"path", c.path,
		"duration_ms", buf.Duration().Milliseconds(),
		"sample_rate", buf.SampleRate,
		"channels", buf.Channels)
	return buf, nil
}

// Discard drops the cached buffer. An in-flight load may still store its
// result afterwards.
func (c *ResourceCache) Discard() {
	c.mu.Lock()
	c.buffer = nil
	c.mu.Unlock()
}
