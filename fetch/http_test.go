package fetch

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/config"
	"github.com/aluiziolira/go-scrape-jumia/metrics"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const pageURL = "http://example.test/ordinateurs-pc/"

func newTestFetcher(t *testing.T, m *metrics.Metrics) (*HTTPFetcher, *httpmock.MockTransport) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test"
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = 2 * time.Millisecond

	f, err := NewHTTPFetcher(cfg, m)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	transport := httpmock.NewMockTransport()
	f.SetTransport(transport)
	return f, transport
}

func TestHTTPFetcherFetchPage(t *testing.T) {
	m := metrics.New()
	f, transport := newTestFetcher(t, m)
	transport.RegisterResponderWithQuery("GET", pageURL, "page=1", htmlResponder(listingHTML))

	fragments, err := f.FetchPage(context.Background(), "ordinateurs-pc", 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(fragments) != 3 {
		t.Fatalf("fragments = %d, want 3", len(fragments))
	}
	if fragments[0].Name != "HP Laptop 15" || fragments[0].Page != 1 {
		t.Fatalf("unexpected first fragment: %+v", fragments[0])
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("http")); got != 1 {
		t.Fatalf("requests = %v, want 1", got)
	}
}

func TestHTTPFetcherEmptyPage(t *testing.T) {
	f, transport := newTestFetcher(t, nil)
	transport.RegisterResponderWithQuery("GET", pageURL, "page=5", htmlResponder("<html><body></body></html>"))

	fragments, err := f.FetchPage(context.Background(), "ordinateurs-pc", 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fragments == nil || len(fragments) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", fragments)
	}
}

func TestHTTPFetcherRetriesServerErrors(t *testing.T) {
	m := metrics.New()
	f, transport := newTestFetcher(t, m)
	transport.RegisterResponderWithQuery("GET", pageURL, "page=1", httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	if _, err := f.FetchPage(context.Background(), "ordinateurs-pc", 1); err == nil {
		t.Fatalf("expected error after retries")
	}
	if got := transport.GetTotalCallCount(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if f.Retries() != 2 {
		t.Fatalf("retries = %d, want 2", f.Retries())
	}
	if got := testutil.ToFloat64(m.RetriesTotal); got != 2 {
		t.Fatalf("retries metric = %v, want 2", got)
	}
}

func TestHTTPFetcherStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected string
		calls    int
	}{
		{status: http.StatusNotFound, expected: "not_found", calls: 1},
		{status: http.StatusForbidden, expected: "forbidden", calls: 1},
		{status: http.StatusTooManyRequests, expected: "rate_limited", calls: 3},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			f, transport := newTestFetcher(t, nil)
			transport.RegisterResponderWithQuery("GET", pageURL, "page=1", httpmock.NewStringResponder(tt.status, ""))

			_, err := f.FetchPage(context.Background(), "ordinateurs-pc", 1)
			if got := ErrorLabel(err); got != tt.expected {
				t.Fatalf("label = %q, want %q (err=%v)", got, tt.expected, err)
			}
			if got := transport.GetTotalCallCount(); got != tt.calls {
				t.Fatalf("calls = %d, want %d", got, tt.calls)
			}
		})
	}
}

func TestHTTPFetcherCanceled(t *testing.T) {
	f, transport := newTestFetcher(t, nil)
	transport.RegisterResponderWithQuery("GET", pageURL, "page=1", htmlResponder(listingHTML))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.FetchPage(ctx, "ordinateurs-pc", 1); ErrorLabel(err) != "canceled" {
		t.Fatalf("expected canceled, got %v", err)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
}

func TestBackoffCapped(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RetryBackoff = 200 * time.Millisecond
	cfg.RetryBackoffMax = 500 * time.Millisecond

	f := &HTTPFetcher{cfg: cfg}
	if got := f.backoff(1); got != 200*time.Millisecond {
		t.Fatalf("backoff(1) = %v", got)
	}
	if got := f.backoff(4); got != cfg.RetryBackoffMax {
		t.Fatalf("backoff(4) = %v, want %v", got, cfg.RetryBackoffMax)
	}
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}
