// Package refiner turns engine triggers into user-facing cards. The LLM
// refiner rewrites them with a generative model; the Local formatter is a
// deterministic stand-in and the fallback for every LLM failure.
package refiner

import (
	"context"
	"strconv"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// Defaults for card refinement.
const (
	DefaultPalette      = "soft_pastel"
	MaxPreparedTriggers = 12
	MinCards            = 4
	MaxCards            = 6
)

// Refiner turns triggers into cards.
type Refiner interface {
	Refine(ctx context.Context, req Request) ([]model.Card, error)
}

// Request is the input to a Refiner.
type Request struct {
	Triggers []model.Trigger
	Palette  string

	// Context the model can use to prioritise.
	Extremes []model.Card
	Todos    []model.Todo
}

// PrepareTriggers drops repeats by category|type|severity|callouts and keeps
// at most limit triggers in first-seen order. limit <= 0 means
// MaxPreparedTriggers.
func PrepareTriggers(triggers []model.Trigger, limit int) []model.Trigger {
	if limit <= 0 {
		limit = MaxPreparedTriggers
	}
	seen := make(map[string]bool, len(triggers))
	out := make([]model.Trigger, 0, min(len(triggers), limit))
	for _, t := range triggers {
		k := preparedKey(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func preparedKey(t model.Trigger) string {
	sev := ""
	if t.Severity != 0 {
		sev = strconv.Itoa(int(t.Severity))
	}
	return string(t.Category) + "|" + string(t.Type) + "|" + sev + "|" + t.CalloutsKey()
}
