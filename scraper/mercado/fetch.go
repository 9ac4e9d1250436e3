package mercado

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mercado-pricer/utils"
)

// ErrFetchFailed is the sentinel for network errors, timeouts and
// non-success statuses. It never propagates past the scraper boundary.
var ErrFetchFailed = errors.New("fetch failed")

// browserHeaders is the stable client identity sent with every request.
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120 Safari/537.36",
	"Accept-Language": "es-MX,es;q=0.9,en;q=0.8",
}

// Fetcher retrieves marketplace pages with a shared connection pool and
// per-call timeouts.
type Fetcher struct {
	client         *http.Client
	logger         *utils.Logger
	retry          *utils.RetryConfig
	listingTimeout time.Duration
	detailTimeout  time.Duration
}

// NewFetcher creates a Fetcher. Timeouts bound each call; the underlying
// client is reused across calls.
func NewFetcher(logger *utils.Logger, listingTimeout, detailTimeout time.Duration, maxRetries int) *Fetcher {
	return &Fetcher{
		client:         &http.Client{},
		logger:         logger,
		listingTimeout: listingTimeout,
		detailTimeout:  detailTimeout,
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
			Logger:      logger,
		},
	}
}

// FetchListing retrieves a listing page. Any failure comes back as
// ErrFetchFailed, never as a raised transport error.
func (f *Fetcher) FetchListing(ctx context.Context, url string) (string, error) {
	return f.fetch(ctx, url, f.listingTimeout, "fetch-listing")
}

// FetchDetail retrieves a product detail page with the shorter timeout.
func (f *Fetcher) FetchDetail(ctx context.Context, url string) (string, error) {
	return f.fetch(ctx, url, f.detailTimeout, "fetch-detail")
}

func (f *Fetcher) fetch(ctx context.Context, url string, timeout time.Duration, op string) (string, error) {
	var html string

	err := f.retry.Do(op, func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		for k, v := range browserHeaders {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("http status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		html = string(body)
		return nil
	})
	if err != nil {
		f.logger.Error("[fetch] %s %s: %v", op, url, err)
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, err)
	}

	return html, nil
}
