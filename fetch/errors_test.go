package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server error", err: nil, statusCode: http.StatusInternalServerError, expected: "status"},
		{name: "canceled", err: context.Canceled, statusCode: 0, expected: "canceled"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: &FetchError{Kind: KindTimeout, Err: errors.New("slow")}, want: true},
		{err: &FetchError{Kind: KindRateLimited, Err: errors.New("429")}, want: true},
		{err: &FetchError{Kind: KindStatus, Err: errors.New("Internal Server Error")}, want: true},
		{err: &FetchError{Kind: KindForbidden, Err: errors.New("403")}, want: false},
		{err: fmt.Errorf("wrapped: %w", &FetchError{Kind: KindNotFound, Err: errors.New("404")}), want: false},
		{err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		if got := retryable(tt.err); got != tt.want {
			t.Fatalf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestFetchErrorUnwraps(t *testing.T) {
	cause := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	err := fmt.Errorf("fetch page: %w", classifyError(cause, 0))

	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindConnection {
		t.Fatalf("expected connection FetchError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost in %v", err)
	}
	if got := fe.Error(); got != "connection: "+cause.Error() {
		t.Fatalf("message = %q", got)
	}
}
