// Package metrics holds the Prometheus collectors for fetches and refreshes.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP fetches against the listing site
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hnterm_fetch_requests_total",
			Help: "Total number of listing page fetches",
		},
		[]string{"status"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hnterm_fetch_duration_seconds",
			Help:    "Listing page fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Parser output
	StoriesParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hnterm_stories_parsed_total",
			Help: "Total number of stories extracted from listing pages",
		},
	)

	// Category refreshes
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hnterm_refreshes_total",
			Help: "Total number of category refreshes",
		},
		[]string{"category", "status"},
	)

	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hnterm_refresh_duration_seconds",
			Help:    "Category refresh duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"category"},
	)

	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hnterm_cache_reads_total",
			Help: "Cache staleness checks and reads by outcome",
		},
		[]string{"outcome"},
	)
)

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
