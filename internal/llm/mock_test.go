package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: "first"},
		MockResponse{Content: json.RawMessage(`{"challenge":"second"}`), Model: "openai/gpt-4o-mini"},
	)
	mock.AddResponse(MockResponse{Err: errors.New("boom")})

	r1, err := mock.Generate(context.Background(), Request{System: "s1"})
	if err != nil || r1.Text != "first" || r1.Model != "mock" {
		t.Fatalf("unexpected first response: %+v, %v", r1, err)
	}

	r2, err := mock.Generate(context.Background(), Request{System: "s2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2.Text != `{"challenge":"second"}` || r2.Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected second response: %+v", r2)
	}

	if _, err := mock.Generate(context.Background(), Request{}); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}

	var unavail *ErrProviderUnavailable
	if _, err := mock.Generate(context.Background(), Request{}); !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable on empty queue, got %v", err)
	}

	if mock.CallCount() != 4 {
		t.Fatalf("expected 4 calls, got %d", mock.CallCount())
	}
	if mock.Calls[1].System != "s2" {
		t.Fatalf("request not recorded: %+v", mock.Calls[1])
	}
}

func TestMockProvider_CancelledContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "unused"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mock.Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
