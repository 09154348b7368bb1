package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// timeoutErr satisfies net.Error with Timeout() == true.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"generic error", errors.New("boom"), false},
		{"net timeout", timeoutErr{}, true},
		{"connection refused", &net.OpError{Err: syscall.ECONNREFUSED}, true},
		{"connection reset", &net.OpError{Err: syscall.ECONNRESET}, true},
		{"broken pipe", &net.OpError{Err: syscall.EPIPE}, true},
		{"dns not found", &net.DNSError{IsNotFound: true}, false},
		{"dns transient", &net.DNSError{IsTimeout: true}, true},
		{"llm rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"llm server error", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"llm bad request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, false},
		{"llm auth failure", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, false},
		{"llm transport error", &openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable, Err: errors.New("boom")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.want {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	retryable := []int{http.StatusTooManyRequests, http.StatusRequestTimeout, 500, 502, 503}
	for _, code := range retryable {
		if !IsRetryableHTTPStatus(code) {
			t.Errorf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404, 422} {
		if IsRetryableHTTPStatus(code) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}

func TestWithBackoff(t *testing.T) {
	fastCfg := BackoffConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxRetries:      2,
		Multiplier:      2.0,
	}

	t.Run("success on first attempt", func(t *testing.T) {
		calls := 0
		err := WithBackoff(context.Background(), fastCfg, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("retries rate-limited backend until success", func(t *testing.T) {
		calls := 0
		err := WithBackoff(context.Background(), fastCfg, func() error {
			calls++
			if calls < 3 {
				return &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("retries transient errors until success", func(t *testing.T) {
		calls := 0
		err := WithBackoff(context.Background(), fastCfg, func() error {
			calls++
			if calls < 3 {
				return timeoutErr{}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("non-retryable error returns immediately", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := WithBackoff(context.Background(), fastCfg, func() error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("budget exhaustion wraps the last error", func(t *testing.T) {
		calls := 0
		err := WithBackoff(context.Background(), fastCfg, func() error {
			calls++
			return timeoutErr{}
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != fastCfg.MaxRetries+1 {
			t.Errorf("expected %d calls, got %d", fastCfg.MaxRetries+1, calls)
		}
		var te timeoutErr
		if !errors.As(err, &te) {
			t.Errorf("expected wrapped timeout error, got %v", err)
		}
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithBackoff(ctx, fastCfg, func() error {
			return timeoutErr{}
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
