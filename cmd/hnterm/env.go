package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelbrown/hnterm/internal/cache"
	"github.com/abelbrown/hnterm/internal/config"
	"github.com/abelbrown/hnterm/internal/fetch"
	"github.com/abelbrown/hnterm/internal/logging"
	"github.com/abelbrown/hnterm/internal/otel"
	"github.com/abelbrown/hnterm/internal/store"
)

// env is everything a command needs, built once from the config.
type env struct {
	cfg    *config.Config
	store  *store.Store
	cache  *cache.Cache
	events *otel.Logger
}

// eventLogPath returns the path to the JSONL event journal.
func eventLogPath() string {
	return filepath.Join(config.StateDir(), "events.jsonl")
}

// setup loads the config, opens logs and the cache database.
func setup() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	if _, err := logging.Init(config.StateDir(), flagLogLevel); err != nil {
		// Non-fatal: keep running without a log file
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	events, err := otel.OpenFile(eventLogPath())
	if err != nil {
		logging.Warn("event log unavailable", "err", err)
		events = otel.NewNullLogger()
	}

	st, reset, err := store.OpenOrReset(cfg.CachePath())
	if err != nil {
		events.Close()
		logging.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if reset {
		logging.Warn("cache database was unreadable and has been reset", "path", cfg.CachePath())
		events.Warn(otel.KindStoreError, "store", "cache database reset: "+cfg.CachePath())
	}

	fetcher := fetch.NewFetcher(
		cfg.FetchTimeoutDuration(),
		fetch.WithRateLimit(cfg.Settings.RequestsPerSecond),
		fetch.WithLogger(events),
	)
	agg, err := fetch.NewAggregator(fetcher, cfg.Settings.BaseURL)
	if err != nil {
		st.Close()
		events.Close()
		logging.Close()
		return nil, err
	}

	logging.Info("hnterm starting", "version", version, "cache", cfg.CachePath(), "session", events.SessionID())

	return &env{
		cfg:    cfg,
		store:  st,
		cache:  cache.New(st, agg, cfg.CacheMaxAge(), cfg.Settings.ExtraPage, cache.WithLogger(events)),
		events: events,
	}, nil
}

// Close releases the store and flushes the logs.
func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		logging.Warn("closing cache", "err", err)
	}
	if err := e.events.Close(); err != nil {
		logging.Warn("closing event log", "err", err)
	}
	logging.Close()
}
