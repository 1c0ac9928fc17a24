package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestDoStopsOnFirstSuccess(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond)
	calls := 0
	err := p.Do(func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond)
	calls := 0
	err := p.Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttemptBudget(t *testing.T) {
	want := errors.New("still broken")
	p := NewRetryPolicy(2, time.Millisecond)
	calls := 0
	err := p.Do(func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected MaxRetries+1 = 3 calls, got %d", calls)
	}
}

func TestNewRetryPolicyClampsInvalidInputs(t *testing.T) {
	p := NewRetryPolicy(0, 0)
	if p.MaxRetries != 2 {
		t.Fatalf("expected default retries 2, got %d", p.MaxRetries)
	}
	if p.Backoff != 200*time.Millisecond {
		t.Fatalf("expected default backoff 200ms, got %v", p.Backoff)
	}
}
