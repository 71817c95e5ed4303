package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/zigwangles/tokydownloader/internal/apperrors"
	"github.com/zigwangles/tokydownloader/internal/config"
	"github.com/zigwangles/tokydownloader/internal/metrics"
	"github.com/zigwangles/tokydownloader/internal/models"
	"github.com/zigwangles/tokydownloader/internal/parser"
)

// maxPageSize bounds how much of a book page is read into memory
const maxPageSize = 16 << 20

// FetchPage returns the page text, from the cache when possible. Network
// errors and 5xx/429 answers are retried with backoff.
func (c *client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	logger := config.GetLogger()

	if c.cache != nil {
		if page, ok := c.cache.Get(ctx, pageURL); ok {
			logger.Debug().Str("url", pageURL).Int("size", len(page)).Msg("Book page served from cache")
			return string(page), nil
		}
	}

	logger.Info().Str("url", pageURL).Msg("Fetching book page")

	policy := retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool { return ctx.Err() == nil && isRetryable(err) }).
		WithMaxRetries(c.retries).
		WithBackoff(250*time.Millisecond, 4*time.Second).
		ReturnLastFailure().
		Build()

	page, err := failsafe.With(policy).WithContext(ctx).Get(func() ([]byte, error) {
		return c.fetchOnce(ctx, pageURL)
	})
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.Set(ctx, pageURL, page)
	}
	return string(page), nil
}

// FetchChapters fetches the page and extracts its chapter list.
func (c *client) FetchChapters(ctx context.Context, pageURL string) ([]models.Chapter, error) {
	page, err := c.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return c.extractor.Extract(page)
}

func (c *client) fetchOnce(ctx context.Context, pageURL string) ([]byte, error) {
	logger := config.GetLogger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", config.GetUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.PageFetchesTotal.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Str("url", pageURL).Msg("Book page request failed")
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	metrics.PageFetchesTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		logger.Warn().Str("url", pageURL).Int("status", resp.StatusCode).Msg("Book page answered with unexpected status")
		return nil, &apperrors.ErrUnexpectedStatus{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := parser.NewUTF8Reader(io.LimitReader(resp.Body, maxPageSize), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", pageURL, err)
	}

	page, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}
	return page, nil
}

// isRetryable reports whether a page fetch error is worth another attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *apperrors.ErrUnexpectedStatus
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
