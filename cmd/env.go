package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lifelens/lifelens-cli/internal/config"
	"github.com/lifelens/lifelens-cli/internal/forecast"
	"github.com/lifelens/lifelens-cli/internal/generate"
	"github.com/lifelens/lifelens-cli/internal/refiner"
	"github.com/lifelens/lifelens-cli/internal/resilience"
	"github.com/lifelens/lifelens-cli/internal/store"
	anthropicpkg "github.com/lifelens/lifelens-cli/pkg/anthropic"
)

// errNoAPIKey is returned by the offline generator.
var errNoAPIKey = eris.New("anthropic key not configured (LIFELENS_ANTHROPIC_KEY)")

// offlineGenerator stands in when no API key is configured so callers take
// their deterministic fallback paths.
type offlineGenerator struct{}

func (offlineGenerator) Text(context.Context, string, string, string) (string, error) {
	return "", errNoAPIKey
}

// textGenerator is what the refiner and forecaster share.
type textGenerator interface {
	Text(ctx context.Context, purpose, system, prompt string) (string, error)
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// generatorConfig maps application config onto the generator's settings.
func generatorConfig(c *config.Config) generate.Config {
	gc := generate.DefaultConfig()
	if c.Anthropic.PrimaryModel != "" {
		gc.PrimaryModel = c.Anthropic.PrimaryModel
	}
	if c.Anthropic.FallbackModel != "" {
		gc.FallbackModel = c.Anthropic.FallbackModel
	}
	if c.Anthropic.MaxTokens > 0 {
		gc.MaxTokens = c.Anthropic.MaxTokens
	}
	gc.Temperature = c.Anthropic.Temperature
	gc.Primary = resilience.FromRetryConfig(gc.Primary,
		c.Retry.Primary.MaxAttempts, c.Retry.Primary.InitialBackoffMs, c.Retry.Primary.MaxBackoffMs)
	gc.Fallback = resilience.FromRetryConfig(gc.Fallback,
		c.Retry.Fallback.MaxAttempts, c.Retry.Fallback.InitialBackoffMs, c.Retry.Fallback.MaxBackoffMs)
	gc.Circuit = resilience.FromCircuitConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs)
	gc.RatePerSec = c.Refiner.RatePerSec
	return gc
}

// initGenerator builds the text generator, or an offline stand-in when no
// key is configured.
func initGenerator() textGenerator {
	if cfg.Anthropic.Key == "" {
		zap.L().Debug("LIFELENS_ANTHROPIC_KEY not set, generation disabled")
		return offlineGenerator{}
	}
	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	return generate.New(client, generatorConfig(cfg))
}

// buildRefiner picks the card refiner. Offline or keyless runs use the
// local formatter; otherwise the model refiner, cached when a store is given.
func buildRefiner(gen textGenerator, st store.Store, offline bool) refiner.Refiner {
	if offline {
		return refiner.Local{}
	}
	if _, ok := gen.(offlineGenerator); ok {
		return refiner.Local{}
	}
	r := refiner.NewLLM(gen, cfg.Refiner.MaxTriggers)
	if st != nil && cfg.Refiner.CacheTTLHours > 0 {
		r = r.WithCache(st, time.Duration(cfg.Refiner.CacheTTLHours)*time.Hour)
	}
	return r
}

// buildForecaster wires the forecaster to gen.
func buildForecaster(gen textGenerator) *forecast.Forecaster {
	return forecast.New(gen)
}
