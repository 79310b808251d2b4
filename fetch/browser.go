package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/config"
	"github.com/aluiziolira/go-scrape-jumia/metrics"
	"github.com/aluiziolira/go-scrape-jumia/models"
	"github.com/playwright-community/playwright-go"
)

// BrowserFetcher renders listing pages in headless Chromium before
// extraction. Pages that build their product grid client side need it.
type BrowserFetcher struct {
	cfg     *config.Config
	metrics *metrics.Metrics

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// NewBrowserFetcher starts Playwright and opens a browser context. Any
// failure here is fatal to the run.
func NewBrowserFetcher(cfg *config.Config, m *metrics.Metrics) (*BrowserFetcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(cfg.UserAgent),
		Viewport: &playwright.Size{
			Width:  1920,
			Height: 1080,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(cfg.Timeout.Milliseconds()))

	return &BrowserFetcher{
		cfg:     cfg,
		metrics: m,
		pw:      pw,
		browser: browser,
		context: bctx,
	}, nil
}

// FetchPage opens the page, waits for the first product card and extracts
// the rendered grid. A page on which no card appears within the wait
// timeout is reported as empty.
func (f *BrowserFetcher) FetchPage(ctx context.Context, categoryKey string, pageNum int) ([]models.ProductFragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target := PageURL(f.cfg.BaseURL, categoryKey, pageNum)

	page, err := f.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	defer page.Close()

	start := time.Now()
	f.metrics.IncRequest(config.FetcherBrowser)
	defer func() { f.metrics.ObserveFetch(time.Since(start)) }()

	resp, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(f.cfg.Timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("navigate %s: %w", target, browserError(err))
	}
	if resp != nil {
		if err := statusError(resp.Status()); err != nil {
			return nil, fmt.Errorf("navigate %s: %w", target, err)
		}
	}

	_, err = page.WaitForSelector(ProductSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(f.cfg.WaitTimeout.Milliseconds())),
		State:   playwright.WaitForSelectorStateAttached,
	})
	if empty, err := waitOutcome(err); err != nil {
		return nil, fmt.Errorf("wait for products on %s: %w", target, err)
	} else if empty {
		slog.Debug("no products appeared",
			slog.String("url", target),
			slog.Duration("wait", f.cfg.WaitTimeout),
		)
		return []models.ProductFragment{}, nil
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read content of %s: %w", target, browserError(err))
	}
	return ExtractHTML(html, categoryKey, pageNum)
}

// Close shuts down the context, the browser and the driver.
func (f *BrowserFetcher) Close() error {
	var errs []error
	if f.context != nil {
		if err := f.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if f.browser != nil {
		if err := f.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if f.pw != nil {
		if err := f.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

// statusError classifies a navigation response; 2xx and 3xx pass.
func statusError(status int) error {
	if status < http.StatusBadRequest {
		return nil
	}
	return classifyError(nil, status)
}

// waitOutcome interprets the wait for the first product card. Running out
// of wait time means the page has no products; other failures are errors.
func waitOutcome(err error) (empty bool, _ error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, playwright.ErrTimeout):
		return true, nil
	default:
		return false, browserError(err)
	}
}

// browserError classifies Playwright failures. Timeouts during navigation
// or reading are transport timeouts, unlike the product wait.
func browserError(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return err
}
