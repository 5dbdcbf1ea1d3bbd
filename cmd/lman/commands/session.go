package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openlibman/openlibman/pkg/cache"
	"github.com/openlibman/openlibman/pkg/graph"
	"github.com/openlibman/openlibman/pkg/telemetry"
)

// newManifestCache builds the parse cache for one command invocation,
// wiring in the persistent store and metrics when configured. The returned
// cleanup must run before exit.
func newManifestCache(ctx context.Context, cfg *Config, logger zerolog.Logger) (*cache.Cache[*cache.ParsedManifest], *telemetry.Metrics, func(), error) {
	metrics := telemetry.NewMetrics(cfg.Telemetry.Metrics)
	opts := []cache.Option[*cache.ParsedManifest]{
		cache.WithCacheLogger[*cache.ParsedManifest](logger),
		cache.WithMetrics[*cache.ParsedManifest](metrics),
	}
	cleanup := func() {}

	if cfg.Cache.Persist {
		store, err := cache.NewSQLiteStore(cache.StoreConfig{Path: cfg.Cache.Path})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating cache store: %w", err)
		}
		if err := store.Init(ctx); err != nil {
			// Cache unavailability must never fail a resolution.
			logger.Warn().Err(err).Msg("persistent cache unavailable, continuing without it")
		} else {
			namespace := cfg.Cache.Namespace
			if namespace == "" {
				namespace = "default"
			}
			opts = append(opts, cache.WithStore(cache.Store(store), namespace, cache.ManifestCodec()))
			cleanup = func() { _ = store.Close() }
		}
	}

	return cache.NewManifestCache(opts...), metrics, cleanup, nil
}

// newSession builds a resolution session for one command invocation.
func newSession(ctx context.Context, cfg *Config, logger zerolog.Logger) (*graph.Session, *telemetry.Metrics, func(), error) {
	manifests, metrics, cleanup, err := newManifestCache(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	session := graph.NewSession(
		graph.WithLogger(logger),
		graph.WithManifestCache(manifests),
	)
	return session, metrics, cleanup, nil
}

// resolutionOutcome maps a resolution result onto a metrics label.
func resolutionOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := graph.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
