package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kinds of fetch failure. They double as metric and log labels.
const (
	KindTimeout     = "timeout"
	KindConnection  = "connection"
	KindForbidden   = "forbidden"
	KindNotFound    = "not_found"
	KindRateLimited = "rate_limited"
	KindStatus      = "status"
)

// FetchError is a classified page fetch failure.
type FetchError struct {
	Kind string
	Err  error
}

func (e *FetchError) Error() string {
	return e.Kind + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrorLabel returns the kind of a fetch error, "canceled" for context
// cancellation and "other" for anything unclassified.
func ErrorLabel(err error) string {
	var fe *FetchError
	switch {
	case err == nil:
		return "unknown"
	case errors.As(err, &fe):
		return fe.Kind
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "other"
	}
}

// retryable reports whether another attempt may succeed. Blocked and
// missing pages will not change on retry.
func retryable(err error) bool {
	switch ErrorLabel(err) {
	case KindForbidden, KindNotFound, "canceled":
		return false
	}
	return true
}

var statusKinds = map[int]string{
	http.StatusForbidden:       KindForbidden,
	http.StatusNotFound:        KindNotFound,
	http.StatusTooManyRequests: KindRateLimited,
}

// classifyError maps a transport error and response status onto a
// FetchError. A nil error with a 4xx/5xx status is still a failure.
func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	var netErr net.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &FetchError{Kind: KindTimeout, Err: err}
	case errors.As(err, &opErr):
		return &FetchError{Kind: KindConnection, Err: err}
	}

	if err == nil {
		err = fmt.Errorf("http status %d", statusCode)
	}
	if kind, ok := statusKinds[statusCode]; ok {
		return &FetchError{Kind: kind, Err: err}
	}
	if statusCode >= http.StatusBadRequest {
		return &FetchError{Kind: KindStatus, Err: err}
	}
	return err
}
