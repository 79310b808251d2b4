package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/config"
	"github.com/aluiziolira/go-scrape-jumia/metrics"
	"github.com/aluiziolira/go-scrape-jumia/models"
	"github.com/gocolly/colly/v2"
)

// HTTPFetcher fetches listing pages with a plain HTTP client. It suits
// pages whose product grid is present in the server-rendered markup.
type HTTPFetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *metrics.Metrics
	retries   int
}

// NewHTTPFetcher builds a fetcher configured from cfg.
func NewHTTPFetcher(cfg *config.Config, m *metrics.Metrics) (*HTTPFetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &HTTPFetcher{
		cfg:       cfg,
		collector: collector,
		metrics:   m,
	}, nil
}

// SetTransport replaces the underlying HTTP transport.
func (f *HTTPFetcher) SetTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Retries reports how many retry attempts were made so far.
func (f *HTTPFetcher) Retries() int {
	return f.retries
}

// FetchPage fetches one listing page, retrying transient failures with
// capped exponential backoff.
func (f *HTTPFetcher) FetchPage(ctx context.Context, categoryKey string, page int) ([]models.ProductFragment, error) {
	target := PageURL(f.cfg.BaseURL, categoryKey, page)

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			f.retries++
			f.metrics.IncRetries()
			delay := f.backoff(attempt)
			slog.Debug("retrying page",
				slog.String("url", target),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", delay),
				slog.String("error_type", ErrorLabel(lastErr)),
			)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fragments, err := f.visit(target, categoryKey, page)
		if err == nil {
			return fragments, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", target, lastErr)
}

func (f *HTTPFetcher) visit(target, categoryKey string, page int) ([]models.ProductFragment, error) {
	c := f.collector.Clone()

	fragments := []models.ProductFragment{}
	var fetchErr error

	c.OnHTML("html", func(e *colly.HTMLElement) {
		fragments = append(fragments, ExtractFragments(e.DOM, categoryKey, page)...)
	})
	c.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = classifyError(err, statusCode)
	})

	start := time.Now()
	f.metrics.IncRequest(config.FetcherHTTP)
	err := c.Visit(target)
	f.metrics.ObserveFetch(time.Since(start))

	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		return nil, classifyError(err, 0)
	}
	return fragments, nil
}

func (f *HTTPFetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := f.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

// Close is a no-op; the collector holds no per-run resources.
func (f *HTTPFetcher) Close() error {
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
