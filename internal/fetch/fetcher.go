// Package fetch turns Hacker News listing pages into stories.
//
// Fetcher retrieves raw HTML, ParsePage scrapes it, and Aggregator drives
// both across the pages of a category. Nothing here touches the cache;
// callers decide what to do with the result.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/hnterm/internal/metrics"
	"github.com/abelbrown/hnterm/internal/otel"
)

// UserAgent identifies the client on every request.
const UserAgent = "hnterm/1.0 (Hacker News terminal client; https://github.com/abelbrown/hnterm)"

// maxBodyBytes caps how much of a listing page is read.
const maxBodyBytes = 4 << 20

// FetchError reports a failed page fetch. Status is zero when the request
// never produced a response (DNS, connect, timeout, cancellation).
type FetchError struct {
	URL    string
	Status int
	Cause  error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.Status, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Fetcher retrieves listing pages over HTTP.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *otel.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRateLimit spaces requests to at most rps per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger attaches an event logger.
func WithLogger(l *otel.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher with the given HTTP client timeout.
func NewFetcher(timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get fetches url and returns the document text. Every failure, including
// a non-2xx status, comes back as a *FetchError. Get never retries.
func (f *Fetcher) Get(ctx context.Context, url string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", &FetchError{URL: url, Cause: err}
		}
	}
	if ctx.Err() != nil {
		return "", &FetchError{URL: url, Cause: ctx.Err()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", UserAgent)

	f.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStart, Comp: "fetch", URL: url})
	start := time.Now()

	body, status, err := f.do(req)
	elapsed := time.Since(start)
	metrics.FetchDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues("error").Inc()
		f.logger.Emit(otel.Event{
			Level:  otel.LevelWarn,
			Kind:   otel.KindFetchError,
			Comp:   "fetch",
			URL:    url,
			Status: status,
			Dur:    elapsed,
			Err:    err.Error(),
		})
		return "", &FetchError{URL: url, Status: status, Cause: err}
	}

	metrics.FetchRequestsTotal.WithLabelValues("ok").Inc()
	f.logger.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindFetchComplete,
		Comp:   "fetch",
		URL:    url,
		Status: status,
		Dur:    elapsed,
		Count:  len(body),
	})
	return body, nil
}

func (f *Fetcher) do(req *http.Request) (string, int, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return string(data), resp.StatusCode, nil
}
