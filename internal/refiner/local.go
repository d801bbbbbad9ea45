package refiner

import (
	"context"
	"slices"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// Local formats triggers into cards without any network calls.
type Local struct{}

// Refine implements Refiner. It never fails.
func (Local) Refine(_ context.Context, req Request) ([]model.Card, error) {
	return Format(req.Triggers), nil
}

var titlePrefix = map[model.TriggerType]string{
	model.TypeInsight: "Heads-up",
	model.TypeAction:  "Try this",
	model.TypeAlert:   "Alert",
}

var bodies = map[model.Category]string{
	model.CategoryAirQuality:         "Air is elevated today. Prefer indoor or shorter sessions.",
	model.CategorySleepDebt:          "Short sleep and late screens may be adding up. Aim a steadier wind-down.",
	model.CategorySedentaryLifestyle: "Long sit time and low steps. Add a couple short walks.",
}

const defaultBody = "Small changes today can help your recovery and energy."

// Format ranks triggers by severity then confidence and renders the top
// MaxCards as cards with 1-based priorities. Ties keep input order.
func Format(triggers []model.Trigger) []model.Card {
	sorted := slices.Clone(triggers)
	slices.SortStableFunc(sorted, func(a, b model.Trigger) int {
		if a.Severity != b.Severity {
			return int(b.Severity) - int(a.Severity)
		}
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		}
		return 0
	})
	if len(sorted) > MaxCards {
		sorted = sorted[:MaxCards]
	}

	cards := make([]model.Card, 0, len(sorted))
	for i, t := range sorted {
		body, ok := bodies[t.Category]
		if !ok {
			body = defaultBody
		}
		cards = append(cards, model.Card{
			Category:       t.Category,
			Type:           t.Type,
			Title:          titlePrefix[t.Type] + ": " + string(t.Category),
			Body:           body,
			MetricCallouts: cloneCallouts(t.MetricCallouts),
			Priority:       float64(i + 1),
		})
	}
	return cards
}

func cloneCallouts(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}
