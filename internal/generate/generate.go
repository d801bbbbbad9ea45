// Package generate runs text generation against a primary model with retry,
// then a fallback model, behind a circuit breaker and a rate limiter.
package generate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lifelens/lifelens-cli/internal/resilience"
	"github.com/lifelens/lifelens-cli/pkg/anthropic"
)

// Config holds everything a Generator needs. Build it once in cmd and pass
// it in; nothing here reads global state.
type Config struct {
	PrimaryModel  string
	FallbackModel string
	MaxTokens     int64
	Temperature   float64

	Primary  resilience.RetryConfig
	Fallback resilience.RetryConfig
	Circuit  resilience.CircuitBreakerConfig

	// RatePerSec limits outbound calls. Zero or less disables limiting.
	RatePerSec float64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		PrimaryModel:  "claude-sonnet-4-5-20250929",
		FallbackModel: "claude-haiku-4-5-20251001",
		MaxTokens:     8192,
		Temperature:   1,
		Primary:       resilience.PrimaryRetryConfig(),
		Fallback:      resilience.FallbackRetryConfig(),
		Circuit:       resilience.DefaultCircuitBreakerConfig(),
		RatePerSec:    2,
	}
}

// Generator produces text for a single prompt.
type Generator struct {
	client  anthropic.Client
	cfg     Config
	breaker *resilience.CircuitBreaker
	limiter *rate.Limiter
}

// New creates a Generator over client.
func New(client anthropic.Client, cfg Config) *Generator {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	cfg.Circuit.OnStateChange = chainStateChange(cfg.Circuit.OnStateChange)
	return &Generator{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(cfg.Circuit),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Text sends system and prompt to the primary model and, if that fails,
// to the fallback model. purpose tags cost and retry logs.
func (g *Generator) Text(ctx context.Context, purpose, system, prompt string) (string, error) {
	text, primaryErr := g.withModel(ctx, purpose, g.cfg.PrimaryModel, g.cfg.Primary, system, prompt)
	if primaryErr == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", eris.Wrap(primaryErr, "generate: primary model")
	}

	zap.L().Warn("primary model failed, trying fallback",
		zap.String("purpose", purpose),
		zap.String("primary", g.cfg.PrimaryModel),
		zap.String("fallback", g.cfg.FallbackModel),
		zap.String("error_type", resilience.ClassifyError(primaryErr)),
		zap.Error(primaryErr),
	)

	text, fallbackErr := g.withModel(ctx, purpose, g.cfg.FallbackModel, g.cfg.Fallback, system, prompt)
	if fallbackErr != nil {
		return "", eris.Wrapf(fallbackErr, "generate: primary and fallback failed (primary: %v)", primaryErr)
	}
	return text, nil
}

func (g *Generator) withModel(ctx context.Context, purpose, model string, retry resilience.RetryConfig, system, prompt string) (string, error) {
	retry.OnRetry = resilience.RetryLogger(purpose, model)
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "generate: rate limit wait")
		}
		return resilience.ExecuteVal(ctx, g.breaker, func(ctx context.Context) (string, error) {
			return g.call(ctx, purpose, model, system, prompt)
		})
	})
}

func (g *Generator) call(ctx context.Context, purpose, model, system, prompt string) (string, error) {
	temp := g.cfg.Temperature
	req := anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   g.cfg.MaxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	}
	if system != "" {
		req.System = []anthropic.SystemBlock{{Text: system}}
	}

	resp, err := g.client.CreateMessage(ctx, req)
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(model, purpose)
	return resp.Text(), nil
}

func chainStateChange(next func(from, to resilience.CircuitState)) func(from, to resilience.CircuitState) {
	return func(from, to resilience.CircuitState) {
		zap.L().Warn("generation circuit state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		if next != nil {
			next(from, to)
		}
	}
}
