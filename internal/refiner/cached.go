package refiner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// CardCache stores refined cards by key.
type CardCache interface {
	GetCachedCards(ctx context.Context, key string) ([]model.Card, bool, error)
	SetCachedCards(ctx context.Context, key string, cards []model.Card, ttl time.Duration) error
}

// WithCache makes r serve repeated prompts from cache for ttl. Only model
// output is stored; local fallback cards never are. Cache errors are logged
// and never fail a refine.
func (r *LLM) WithCache(cache CardCache, ttl time.Duration) *LLM {
	r.cache = cache
	r.ttl = ttl
	return r
}

// CacheKey hashes the prompt req produces once its triggers are prepared,
// so palette, triggers, extremes and to-dos all take part.
func CacheKey(req Request, maxTriggers int) (string, error) {
	req.Triggers = PrepareTriggers(req.Triggers, maxTriggers)
	if req.Palette == "" {
		req.Palette = DefaultPalette
	}
	prompt, err := buildPrompt(req)
	if err != nil {
		return "", err
	}
	return promptKey(prompt), nil
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func (r *LLM) cachedCards(ctx context.Context, key string) ([]model.Card, bool) {
	if r.cache == nil {
		return nil, false
	}
	cards, ok, err := r.cache.GetCachedCards(ctx, key)
	switch {
	case err != nil:
		zap.L().Warn("card cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case ok:
		zap.L().Debug("card cache hit", zap.String("key", key))
	}
	return cards, ok
}

func (r *LLM) storeCards(ctx context.Context, key string, cards []model.Card) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetCachedCards(ctx, key, cards, r.ttl); err != nil {
		zap.L().Warn("card cache write failed", zap.String("key", key), zap.Error(err))
	}
}
