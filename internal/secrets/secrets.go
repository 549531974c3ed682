// Package secrets resolves the API key used to authenticate against the
// generation backend.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when a source has no value for the key.
var ErrNotFound = errors.New("api key not found")

// Provider returns the backend API key.
type Provider interface {
	APIKey(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, error)

func (f ProviderFunc) APIKey(ctx context.Context) (string, error) { return f(ctx) }

// Static returns a Provider that always yields key. An empty key yields
// ErrNotFound.
func Static(key string) Provider {
	return ProviderFunc(func(context.Context) (string, error) {
		if key == "" {
			return "", ErrNotFound
		}
		return key, nil
	})
}

// Env returns a Provider that reads the key from the named environment
// variable on every call.
func Env(name string) Provider {
	return ProviderFunc(func(context.Context) (string, error) {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			return "", fmt.Errorf("%w: environment variable %s is empty", ErrNotFound, name)
		}
		return v, nil
	})
}

// Cached keeps the first successfully resolved key for the lifetime of the
// process. Concurrent first lookups share one upstream call, made with the
// context of the caller that started it; every caller stops waiting when its
// own context ends. Failures are not cached, so the next call tries again.
type Cached struct {
	inner Provider
	group singleflight.Group

	mu  sync.RWMutex
	key string
}

// NewCached wraps p with a read-through cache.
func NewCached(p Provider) *Cached {
	return &Cached{inner: p}
}

func (c *Cached) APIKey(ctx context.Context) (string, error) {
	c.mu.RLock()
	key := c.key
	c.mu.RUnlock()
	if key != "" {
		return key, nil
	}

	ch := c.group.DoChan("api-key", func() (any, error) {
		c.mu.RLock()
		cached := c.key
		c.mu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		k, err := c.inner.APIKey(ctx)
		if err != nil {
			return "", err
		}
		if k == "" {
			return "", ErrNotFound
		}

		c.mu.Lock()
		c.key = k
		c.mu.Unlock()
		return k, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
