package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/persenaut/challenges/internal/secrets"
)

func TestKeyed_BuildsOnceWithKey(t *testing.T) {
	var builds int
	var gotKey string
	mock := NewMockProvider(MockResponse{Text: "a"}, MockResponse{Text: "b"})
	k := NewKeyed(secrets.Static("sk-test"), "configured-model", func(_ context.Context, key string) (Provider, error) {
		builds++
		gotKey = key
		return mock, nil
	})

	if k.ModelID() != "configured-model" {
		t.Fatalf("ModelID before build = %q", k.ModelID())
	}
	for range 2 {
		if _, err := k.Generate(context.Background(), Request{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if builds != 1 || gotKey != "sk-test" {
		t.Fatalf("builds = %d, key = %q", builds, gotKey)
	}
	if k.ModelID() != "mock" {
		t.Fatalf("ModelID after build = %q", k.ModelID())
	}
}

func TestKeyed_CredentialFailureIsRetried(t *testing.T) {
	calls := 0
	creds := secrets.ProviderFunc(func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("secret unavailable")
		}
		return "sk-late", nil
	})
	k := NewKeyed(creds, "m", func(context.Context, string) (Provider, error) {
		return NewMockProvider(MockResponse{Text: "ok"}), nil
	})

	err := k.Ready(context.Background())
	var cred *ErrCredentials
	if !errors.As(err, &cred) {
		t.Fatalf("expected ErrCredentials, got %v", err)
	}

	if err := k.Ready(context.Background()); err != nil {
		t.Fatalf("expected second lookup to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 credential lookups, got %d", calls)
	}
}

func TestKeyed_BuildFailureIsCredentialError(t *testing.T) {
	k := NewKeyed(secrets.Static("sk"), "m", func(context.Context, string) (Provider, error) {
		return nil, errors.New("bad base url")
	})
	_, err := k.Generate(context.Background(), Request{})
	var cred *ErrCredentials
	if !errors.As(err, &cred) {
		t.Fatalf("expected ErrCredentials, got %v", err)
	}
}

func TestKeyed_SlowLookupDoesNotBlockOtherCallers(t *testing.T) {
	release := make(chan struct{})
	creds := secrets.ProviderFunc(func(ctx context.Context) (string, error) {
		select {
		case <-release:
			return "sk-slow", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	k := NewKeyed(creds, "m", func(context.Context, string) (Provider, error) {
		return NewMockProvider(MockResponse{Text: "ok"}), nil
	})

	first := make(chan error, 1)
	go func() { first <- k.Ready(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := k.Ready(ctx)
	var cred *ErrCredentials
	if !errors.As(err, &cred) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected credential error wrapping the deadline, got %v", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Fatalf("short-deadline caller waited %v", waited)
	}

	close(release)
	if err := <-first; err != nil {
		t.Fatalf("first caller: %v", err)
	}
	if err := k.Ready(ctx); err != nil {
		t.Fatalf("built backend should be reused, got %v", err)
	}
}
