package refiner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifelens/lifelens-cli/internal/model"
)

func card(cat model.Category, typ model.TriggerType, title string, callouts ...string) model.Card {
	return model.Card{Category: cat, Type: typ, Title: title, MetricCallouts: callouts}
}

func TestPartition_Extremes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		card model.Card
		want bool
	}{
		{"alert title", card(model.CategoryMood, model.TypeAlert, "Alert: Mood"), true},
		{"air quality title", card(model.CategoryAirQuality, model.TypeInsight, "Heads-up: Air quality"), true},
		{"smoking title", card(model.CategorySmoking, model.TypeInsight, "Smoking check-in"), true},
		{"aqi 150", card(model.CategoryStress, model.TypeInsight, "x", "AQI 150"), true},
		{"aqi 149", card(model.CategoryStress, model.TypeInsight, "x", "AQI 149"), false},
		{"aqi 120", card(model.CategoryStress, model.TypeInsight, "x", "AQI 120"), false},
		{"aqi 100", card(model.CategoryStress, model.TypeInsight, "x", "AQI 100"), false},
		{"aqi 310", card(model.CategoryStress, model.TypeInsight, "x", "AQI 310"), true},
		{"sleep debt 2.5h", card(model.CategoryStress, model.TypeInsight, "x", "Sleep debt 2.5h"), true},
		{"sleep debt 2.4h", card(model.CategoryStress, model.TypeInsight, "x", "Sleep debt 2.4h"), false},
		{"steps 2999", card(model.CategoryStress, model.TypeInsight, "x", "Steps 2999 (goal 7–10k)"), true},
		{"steps 3000", card(model.CategoryStress, model.TypeInsight, "x", "Steps 3000 (goal 7–10k)"), false},
		{"steps n/a", card(model.CategoryStress, model.TypeInsight, "x", "Steps n/a (goal 7–10k)"), false},
		{"caffeine 350mg", card(model.CategoryStress, model.TypeInsight, "x", "Caffeine 350mg"), true},
		{"caffeine 349mg", card(model.CategoryStress, model.TypeInsight, "x", "Caffeine 349mg"), false},
		{"nothing", card(model.CategoryMood, model.TypeInsight, "Heads-up: Mood", "Mood trend down"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(model.AppPayload{Cards: []model.Card{tt.card}})
			assert.Len(t, got.Flagged, 1)
			assert.Equal(t, tt.want, len(got.Extremes) == 1)
		})
	}
}

func TestPartition_Suggestions(t *testing.T) {
	t.Parallel()

	p := model.AppPayload{Cards: []model.Card{
		card(model.CategorySleepDebt, model.TypeInsight, "Heads-up: Sleep debt"),
		card(model.CategoryCaffeine, model.TypeAction, "Cut back"),
		card(model.CategoryDiabetesType2, model.TypeInsight, "Try this: swap soda"),
		card(model.CategoryHydration, model.TypeInsight, "Take ACTION on water"),
	}}

	got := Partition(p)
	require.Len(t, got.Suggestions, 3)
	assert.Equal(t, "caffeine-0", got.Suggestions[0].ActionID)
	assert.Equal(t, "diabetes-type-2--1", got.Suggestions[1].ActionID)
	assert.Equal(t, "hydration-2", got.Suggestions[2].ActionID)
	for _, s := range got.Suggestions {
		assert.True(t, s.Actionable)
	}

	// Flagged cards are untouched copies.
	assert.Empty(t, got.Flagged[1].ActionID)
	assert.Empty(t, p.Cards[1].ActionID)
}

func TestPartition_Empty(t *testing.T) {
	t.Parallel()

	got := Partition(model.AppPayload{})
	assert.NotNil(t, got.Flagged)
	assert.NotNil(t, got.Extremes)
	assert.NotNil(t, got.Suggestions)
}

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Sleep debt":         "sleep-debt",
		"GERD (acid reflux)": "gerd-acid-reflux-",
		"Café à la carte":    "cafe-a-la-carte",
		"":                   "action",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}
