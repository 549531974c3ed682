package llm

import (
	"context"
	"sync"

	"github.com/persenaut/challenges/internal/secrets"
)

// BuildFunc constructs a backend for the given API key.
type BuildFunc func(ctx context.Context, apiKey string) (Provider, error)

// Keyed is a Provider whose backend is built on first use from the key the
// credential provider returns. A failed lookup or build is not remembered;
// the next call tries again.
type Keyed struct {
	creds secrets.Provider
	build BuildFunc
	model string

	mu    sync.Mutex
	inner Provider
}

// NewKeyed returns a Keyed provider. model is reported by ModelID before the
// backend exists.
func NewKeyed(creds secrets.Provider, model string, build BuildFunc) *Keyed {
	return &Keyed{creds: creds, build: build, model: model}
}

// Ready resolves the credential and builds the backend without calling it.
// Errors are *ErrCredentials.
func (k *Keyed) Ready(ctx context.Context) error {
	_, err := k.provider(ctx)
	return err
}

func (k *Keyed) Generate(ctx context.Context, req Request) (*Response, error) {
	p, err := k.provider(ctx)
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, req)
}

func (k *Keyed) ModelID() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.inner != nil {
		return k.inner.ModelID()
	}
	return k.model
}

func (k *Keyed) provider(ctx context.Context) (Provider, error) {
	k.mu.Lock()
	p := k.inner
	k.mu.Unlock()
	if p != nil {
		return p, nil
	}

	// Resolved unlocked so each caller waits on its own deadline. Concurrent
	// first calls may each build; the first stored backend wins.
	key, err := k.creds.APIKey(ctx)
	if err != nil {
		return nil, &ErrCredentials{Err: err}
	}
	p, err = k.build(ctx, key)
	if err != nil {
		return nil, &ErrCredentials{Err: err}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.inner == nil {
		k.inner = p
	}
	return k.inner, nil
}
