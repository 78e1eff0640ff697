package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastCfg() Config {
	return Config{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Op: "test"}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	got, err := Do(context.Background(), fastCfg(), func(_ context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	got, err := Do(context.Background(), fastCfg(), func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{Code: 503}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), fastCfg(), func(_ context.Context) (int, error) {
		calls++
		return 0, &StatusError{Code: 500}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_NonTransientNoRetry(t *testing.T) {
	var calls int
	_, err := Do(context.Background(), fastCfg(), func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := Do(ctx, fastCfg(), func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, &StatusError{Code: 503}
	})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429 status", &StatusError{Code: 429}, true},
		{"503 status", &StatusError{Code: 503}, true},
		{"404 status", &StatusError{Code: 404}, false},
		{"wrapped 502", errors.Join(errors.New("fetch"), &StatusError{Code: 502}), true},
		{"timeout text", errors.New("dial tcp: i/o timeout"), true},
		{"dns text", errors.New("lookup example.cn: no such host"), true},
		{"plain error", errors.New("invalid payload"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestStatusErrorTransient(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !(&StatusError{Code: code}).Transient() {
			t.Errorf("status %d should be transient", code)
		}
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 422} {
		if (&StatusError{Code: code}).Transient() {
			t.Errorf("status %d should not be transient", code)
		}
	}
}
